package sensor

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"weather-agent/internal/model"
)

// InvalidFieldError reports a sensor channel that failed validation, tagged
// with the offending short key and the raw value for diagnostics.
// DeviceFault marks values that indicate a hardware fault rather than a
// transient glitch; the agent may arm a station reset in response.
type InvalidFieldError struct {
	Field       string
	Raw         string
	Reason      string
	DeviceFault bool
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Raw, e.Reason)
}

// Light conversion modes for the two station hardware generations.
const (
	LightLinear = "linear" // percentage = 100 * raw / factor
	LightMinMax = "minmax" // percentage normalized between raw min and max
)

// Settings holds the conversion and validation constants. The defaults match
// the station firmware and a site elevation of 253 feet.
type Settings struct {
	PressureScale      float64 // inches Hg per Pascal
	PressureCorrection float64 // site elevation correction
	PressureMin        float64 // inclusive lower bound
	PressureMax        float64 // exclusive upper bound
	LightMode          string
	LightFactor        float64 // LightLinear divisor
	LightRawMin        float64 // LightMinMax bounds
	LightRawMax        float64
	TempFloorF         float64
	HumidityOffset     float64
	HumidityMax        float64
}

// DefaultSettings returns the constants used by the production station.
func DefaultSettings() Settings {
	return Settings{
		PressureScale:      0.00029530099194,
		PressureCorrection: 0.2767,
		PressureMin:        25.0,
		PressureMax:        35.0,
		LightMode:          LightLinear,
		LightFactor:        3.1,
		LightRawMin:        0,
		LightRawMax:        1023,
		TempFloorF:         -100.0,
		HumidityOffset:     0,
		HumidityMax:        110.0,
	}
}

// Converter turns a parsed field set into a canonical Reading. Conversion is
// pure: the same field set and timestamp always produce the same result, and
// a single invalid field rejects the whole reading.
type Converter struct {
	Settings Settings
	Mode     string // mode tag stamped on each reading
}

// Convert validates and converts fs in fixed field order, so the first
// failing field determines the reported error. On any failure no Reading is
// returned.
func (c Converter) Convert(fs model.FieldSet, at time.Time) (model.Reading, error) {
	pressure, err := c.convertPressure(fs)
	if err != nil {
		return model.Reading{}, err
	}
	light, err := c.convertLight(fs)
	if err != nil {
		return model.Reading{}, err
	}
	tempf, err := c.validateTemperature(fs)
	if err != nil {
		return model.Reading{}, err
	}
	humidity, err := c.validateHumidity(fs)
	if err != nil {
		return model.Reading{}, err
	}

	r := model.Reading{
		Timestamp: at,
		Status:    "online",
		Mode:      c.Mode,
		TempF:     tempf,
		Humidity:  humidity,
		Pressure:  pressure,
		LightPct:  light,
	}

	// Pass-through channels keep the station's display formatting.
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"ws", &r.WindSpeedMPH},
		{"wd", &r.WindDir},
		{"gs", &r.WindGustMPH},
		{"gd", &r.WindGustDir},
		{"ws2", &r.WindSpeedAvg2m},
		{"wd2", &r.WindDirAvg2m},
		{"gs10", &r.WindGust10m},
		{"gd10", &r.WindGustDir10m},
		{"r", &r.RainIn},
		{"dr", &r.DailyRainIn},
		{"b", &r.BattLevel},
	} {
		v, ok := fs[f.key]
		if !ok {
			return model.Reading{}, &InvalidFieldError{Field: f.key, Reason: "missing"}
		}
		*f.dst = v
	}

	return r, nil
}

func (c Converter) convertPressure(fs model.FieldSet) (float64, error) {
	raw, ok := fs["p"]
	if !ok {
		return 0, &InvalidFieldError{Field: "p", Reason: "missing"}
	}
	pa, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &InvalidFieldError{Field: "p", Raw: raw, Reason: "not a number"}
	}
	// Pascals to inches Hg, corrected for site elevation.
	bar := pa*c.Settings.PressureScale + c.Settings.PressureCorrection
	if bar < c.Settings.PressureMin || bar >= c.Settings.PressureMax {
		return 0, &InvalidFieldError{
			Field:  "p",
			Raw:    raw,
			Reason: fmt.Sprintf("converted pressure %.4f outside [%g, %g)", bar, c.Settings.PressureMin, c.Settings.PressureMax),
		}
	}
	return bar, nil
}

func (c Converter) convertLight(fs model.FieldSet) (float64, error) {
	raw, ok := fs["l"]
	if !ok {
		return 0, &InvalidFieldError{Field: "l", Reason: "missing"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &InvalidFieldError{Field: "l", Raw: raw, Reason: "not a number"}
	}
	var pct float64
	switch c.Settings.LightMode {
	case LightMinMax:
		span := c.Settings.LightRawMax - c.Settings.LightRawMin
		if span <= 0 {
			return 0, &InvalidFieldError{Field: "l", Raw: raw, Reason: "invalid min/max normalization bounds"}
		}
		pct = math.Round(100 * (v - c.Settings.LightRawMin) / span)
	default:
		pct = 100 * v / c.Settings.LightFactor
	}
	return math.Min(100, math.Max(0, pct)), nil
}

func (c Converter) validateTemperature(fs model.FieldSet) (float64, error) {
	raw, ok := fs["t"]
	if !ok {
		return 0, &InvalidFieldError{Field: "t", Reason: "missing"}
	}
	tempf, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &InvalidFieldError{Field: "t", Raw: raw, Reason: "not a number"}
	}
	if tempf < c.Settings.TempFloorF {
		// Readings this far below the floor mean a failed sensor, not cold
		// weather.
		return 0, &InvalidFieldError{Field: "t", Raw: raw, Reason: "sensor fault", DeviceFault: true}
	}
	return tempf, nil
}

func (c Converter) validateHumidity(fs model.FieldSet) (float64, error) {
	raw, ok := fs["h"]
	if !ok {
		return 0, &InvalidFieldError{Field: "h", Reason: "missing"}
	}
	h, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &InvalidFieldError{Field: "h", Raw: raw, Reason: "not a number"}
	}
	h += c.Settings.HumidityOffset
	if h > c.Settings.HumidityMax {
		return 0, &InvalidFieldError{
			Field:  "h",
			Raw:    raw,
			Reason: fmt.Sprintf("humidity %.1f above %g", h, c.Settings.HumidityMax),
		}
	}
	return h, nil
}
