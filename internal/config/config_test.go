package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
station:
  url: "http://192.168.1.155"
  pin: "12345"
paths:
  rrd_file: "database/weatherData.rrd"
  charts_dir: "dynamic"
  output_file: "dynamic/weatherData.js"
`

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Intervals.Poll != 10*time.Second {
		t.Fatalf("expected poll default 10s, got %s", cfg.Intervals.Poll)
	}
	if cfg.Intervals.Database != time.Minute {
		t.Fatalf("expected database default 60s, got %s", cfg.Intervals.Database)
	}
	if cfg.Intervals.DayCharts != 5*time.Minute {
		t.Fatalf("expected day charts default 5m, got %s", cfg.Intervals.DayCharts)
	}
	if cfg.Intervals.LongCharts != time.Hour {
		t.Fatalf("expected long charts default 1h, got %s", cfg.Intervals.LongCharts)
	}
	if cfg.Reliability.MaxFailures != 3 {
		t.Fatalf("expected max failures default 3, got %d", cfg.Reliability.MaxFailures)
	}
	if cfg.Station.Mode != "primary" {
		t.Fatalf("expected mode default primary, got %q", cfg.Station.Mode)
	}
	if cfg.Paths.RRDTool != "rrdtool" {
		t.Fatalf("expected rrdtool binary default, got %q", cfg.Paths.RRDTool)
	}
	if cfg.Charts.Width != 600 || cfg.Charts.Height != 150 {
		t.Fatalf("expected chart size defaults, got %dx%d", cfg.Charts.Width, cfg.Charts.Height)
	}
}

func TestLoadRejectsMissingURL(t *testing.T) {
	t.Parallel()
	data := `
paths:
  rrd_file: "db.rrd"
  charts_dir: "dynamic"
  output_file: "out.js"
`
	if _, err := Load(writeConfig(t, data)); err == nil {
		t.Fatal("expected error for missing station.url")
	}
}

func TestLoadRejectsBadLightMode(t *testing.T) {
	t.Parallel()
	data := minimalConfig + `
conversion:
  light_mode: sideways
`
	if _, err := Load(writeConfig(t, data)); err == nil {
		t.Fatal("expected error for unknown light mode")
	}
}

func TestSensorSettingsOverrides(t *testing.T) {
	t.Parallel()
	data := minimalConfig + `
conversion:
  light_mode: minmax
  light_raw_max: 1023
  humidity_max: 150
`
	cfg, err := Load(writeConfig(t, data))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s := cfg.SensorSettings()
	if s.LightMode != "minmax" {
		t.Fatalf("expected light mode override, got %q", s.LightMode)
	}
	if s.HumidityMax != 150 {
		t.Fatalf("expected humidity max override, got %v", s.HumidityMax)
	}
	// Untouched constants keep firmware defaults.
	if s.PressureScale != 0.00029530099194 {
		t.Fatalf("expected default pressure scale, got %v", s.PressureScale)
	}
	if s.TempFloorF != -100 {
		t.Fatalf("expected default temp floor, got %v", s.TempFloorF)
	}
}

func TestSensorSettingsExplicitZeroOverrides(t *testing.T) {
	t.Parallel()
	data := minimalConfig + `
conversion:
  pressure_correction: 0
  temp_floor_f: 0
`
	cfg, err := Load(writeConfig(t, data))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s := cfg.SensorSettings()
	// An explicit zero is a real override, not a fallback to the defaults.
	if s.PressureCorrection != 0 {
		t.Fatalf("expected zero pressure correction, got %v", s.PressureCorrection)
	}
	if s.TempFloorF != 0 {
		t.Fatalf("expected zero temp floor, got %v", s.TempFloorF)
	}
	// Omitted keys still pick up the firmware defaults.
	if s.PressureScale != 0.00029530099194 {
		t.Fatalf("expected default pressure scale, got %v", s.PressureScale)
	}
	if s.HumidityMax != 110 {
		t.Fatalf("expected default humidity max, got %v", s.HumidityMax)
	}
}
