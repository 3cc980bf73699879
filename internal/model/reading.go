package model

import (
	"fmt"
	"strconv"
	"time"
)

// FieldSet holds the short-form key/value pairs decoded from one station
// frame, before any conversion or validation has been applied.
type FieldSet map[string]string

// Reading is a fully validated, unit-converted station reading. Validated
// sensor channels carry typed float values; channels passed through unchanged
// keep the display string received from the station.
type Reading struct {
	Timestamp time.Time
	Status    string // "online"
	Mode      string // "primary" or "mirror"

	WindSpeedMPH   string
	WindDir        string
	WindGustMPH    string
	WindGustDir    string
	WindSpeedAvg2m string
	WindDirAvg2m   string
	WindGust10m    string
	WindGustDir10m string
	RainIn         string
	DailyRainIn    string
	BattLevel      string

	TempF    float64
	Humidity float64
	Pressure float64 // inches Hg, after unit conversion
	LightPct float64
}

// Fields returns the reading as the flat long-key map consumed by the output
// artifact and downstream web clients.
func (r Reading) Fields() map[string]string {
	return map[string]string{
		"date":               r.Timestamp.Format(TimestampLayout),
		"status":             r.Status,
		"mode":               r.Mode,
		"windspeedmph":       r.WindSpeedMPH,
		"winddir":            r.WindDir,
		"windgustmph":        r.WindGustMPH,
		"windgustdir":        r.WindGustDir,
		"windspeedmph_avg2m": r.WindSpeedAvg2m,
		"winddir_avg2m":      r.WindDirAvg2m,
		"windgustmph_10m":    r.WindGust10m,
		"windgustdir_10m":    r.WindGustDir10m,
		"rainin":             r.RainIn,
		"dailyrainin":        r.DailyRainIn,
		"batt_lvl":           r.BattLevel,
		"tempf":              strconv.FormatFloat(r.TempF, 'f', -1, 64),
		"humidity":           strconv.FormatFloat(r.Humidity, 'f', -1, 64),
		"pressure":           fmt.Sprintf("%.2f", r.Pressure),
		"light_lvl":          fmt.Sprintf("%d", int(r.LightPct)),
	}
}

// TimestampLayout is the timestamp format used in the output artifact.
const TimestampLayout = "01/02/2006 15:04:05"

// Sample is the subset of a reading persisted to the round robin database,
// with wind direction expanded from compass point index to degrees.
type Sample struct {
	Time         time.Time
	WindSpeedMPH float64
	WindDirDeg   float64
	TempF        float64
	RainIn       float64
	Pressure     float64
	Humidity     float64
}

// Sample extracts the persisted channels from the reading. The 2-minute wind
// averages are stored; the compass point index is scaled to degrees.
func (r Reading) Sample() (Sample, error) {
	ws, err := strconv.ParseFloat(r.WindSpeedAvg2m, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("wind speed %q: %w", r.WindSpeedAvg2m, err)
	}
	wd, err := strconv.ParseFloat(r.WindDirAvg2m, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("wind direction %q: %w", r.WindDirAvg2m, err)
	}
	rain, err := strconv.ParseFloat(r.RainIn, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("rain %q: %w", r.RainIn, err)
	}
	return Sample{
		Time:         r.Timestamp,
		WindSpeedMPH: ws,
		WindDirDeg:   wd * 22.5,
		TempF:        r.TempF,
		RainIn:       rain,
		Pressure:     r.Pressure,
		Humidity:     r.Humidity,
	}, nil
}
