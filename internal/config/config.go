package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"weather-agent/internal/sensor"
)

// Config is the root agent configuration. This mirrors config/config.yaml.
type Config struct {
	Station     StationConfig     `yaml:"station"`
	Intervals   IntervalConfig    `yaml:"intervals"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Conversion  ConversionConfig  `yaml:"conversion"`
	Paths       PathsConfig       `yaml:"paths"`
	Charts      ChartsConfig      `yaml:"charts"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	// set from CLI flags, not YAML
	Debug   bool `yaml:"-"`
	Verbose bool `yaml:"-"`
}

type StationConfig struct {
	URL        string        `yaml:"url"`
	PIN        string        `yaml:"pin"`
	Mode       string        `yaml:"mode"` // primary | mirror
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type IntervalConfig struct {
	Poll       time.Duration `yaml:"poll"`
	Database   time.Duration `yaml:"database"`
	DayCharts  time.Duration `yaml:"day_charts"`
	LongCharts time.Duration `yaml:"long_charts"`
}

type ReliabilityConfig struct {
	MaxFailures        int           `yaml:"max_failures"`
	Settle             time.Duration `yaml:"settle"`
	ResetOnSensorFault bool          `yaml:"reset_on_sensor_fault"`
}

// ConversionConfig overrides the sensor conversion constants. Unset fields
// fall back to the firmware defaults; pointers keep an explicit zero (for
// example pressure_correction: 0 at a sea-level site) distinguishable from
// an omitted key.
type ConversionConfig struct {
	PressureScale      *float64 `yaml:"pressure_scale"`
	PressureCorrection *float64 `yaml:"pressure_correction"`
	PressureMin        *float64 `yaml:"pressure_min"`
	PressureMax        *float64 `yaml:"pressure_max"`
	LightMode          string   `yaml:"light_mode"` // linear | minmax
	LightFactor        *float64 `yaml:"light_factor"`
	LightRawMin        *float64 `yaml:"light_raw_min"`
	LightRawMax        *float64 `yaml:"light_raw_max"`
	TempFloorF         *float64 `yaml:"temp_floor_f"`
	HumidityOffset     *float64 `yaml:"humidity_offset"`
	HumidityMax        *float64 `yaml:"humidity_max"`
}

type PathsConfig struct {
	RRDFile        string `yaml:"rrd_file"`
	RRDTool        string `yaml:"rrdtool_bin"`
	ChartsDir      string `yaml:"charts_dir"`
	OutputFile     string `yaml:"output_file"`
	ForwardingFile string `yaml:"forwarding_file"`
}

type ChartsConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Station.Mode == "" {
		c.Station.Mode = "primary"
	}
	if c.Station.Timeout <= 0 {
		c.Station.Timeout = 2 * time.Second
	}
	if c.Station.RetryCount < 0 {
		c.Station.RetryCount = 0
	}
	if c.Station.RetryDelay <= 0 {
		c.Station.RetryDelay = time.Second
	}
	if c.Intervals.Poll <= 0 {
		c.Intervals.Poll = 10 * time.Second
	}
	if c.Intervals.Database <= 0 {
		c.Intervals.Database = time.Minute
	}
	if c.Intervals.DayCharts <= 0 {
		c.Intervals.DayCharts = 5 * time.Minute
	}
	if c.Intervals.LongCharts <= 0 {
		c.Intervals.LongCharts = time.Hour
	}
	if c.Reliability.MaxFailures <= 0 {
		c.Reliability.MaxFailures = 3
	}
	if c.Reliability.Settle <= 0 {
		c.Reliability.Settle = 20 * time.Second
	}
	if c.Paths.RRDTool == "" {
		c.Paths.RRDTool = "rrdtool"
	}
	if c.Charts.Width <= 0 {
		c.Charts.Width = 600
	}
	if c.Charts.Height <= 0 {
		c.Charts.Height = 150
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.History.Enabled && c.History.DBPath == "" {
		c.History.DBPath = "data/weather.sqlite"
	}
}

func (c *Config) validate() error {
	if c.Station.URL == "" {
		return fmt.Errorf("station.url must be set")
	}
	switch c.Station.Mode {
	case "primary", "mirror":
	default:
		return fmt.Errorf("station.mode %q (expected primary or mirror)", c.Station.Mode)
	}
	if c.Paths.RRDFile == "" {
		return fmt.Errorf("paths.rrd_file must be set")
	}
	if c.Paths.ChartsDir == "" {
		return fmt.Errorf("paths.charts_dir must be set")
	}
	if c.Paths.OutputFile == "" {
		return fmt.Errorf("paths.output_file must be set")
	}
	switch c.Conversion.LightMode {
	case "", sensor.LightLinear, sensor.LightMinMax:
	default:
		return fmt.Errorf("conversion.light_mode %q (expected linear or minmax)", c.Conversion.LightMode)
	}
	return nil
}

// SensorSettings merges the configured overrides onto the firmware defaults.
func (c *Config) SensorSettings() sensor.Settings {
	s := sensor.DefaultSettings()
	if v := c.Conversion.PressureScale; v != nil {
		s.PressureScale = *v
	}
	if v := c.Conversion.PressureCorrection; v != nil {
		s.PressureCorrection = *v
	}
	if v := c.Conversion.PressureMin; v != nil {
		s.PressureMin = *v
	}
	if v := c.Conversion.PressureMax; v != nil {
		s.PressureMax = *v
	}
	if c.Conversion.LightMode != "" {
		s.LightMode = c.Conversion.LightMode
	}
	if v := c.Conversion.LightFactor; v != nil {
		s.LightFactor = *v
	}
	if v := c.Conversion.LightRawMin; v != nil {
		s.LightRawMin = *v
	}
	if v := c.Conversion.LightRawMax; v != nil {
		s.LightRawMax = *v
	}
	if v := c.Conversion.TempFloorF; v != nil {
		s.TempFloorF = *v
	}
	if v := c.Conversion.HumidityOffset; v != nil {
		s.HumidityOffset = *v
	}
	if v := c.Conversion.HumidityMax; v != nil {
		s.HumidityMax = *v
	}
	return s
}
