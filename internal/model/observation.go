package model

import "time"

// Observation is one persisted station reading in the local history store.
// Table: observations
type Observation struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp    time.Time `gorm:"column:timestamp;index"`
	WindSpeedMPH float64   `gorm:"column:windspeedmph"`
	WindDirDeg   float64   `gorm:"column:winddir"`
	TempF        float64   `gorm:"column:tempf"`
	RainIn       float64   `gorm:"column:rainin"`
	Pressure     float64   `gorm:"column:pressure"`
	Humidity     float64   `gorm:"column:humidity"`
	LightPct     float64   `gorm:"column:light_lvl"`
}

func (Observation) TableName() string { return "observations" }

// ObservationFrom builds a history row from a persisted sample plus the
// light channel, which is displayed but not stored in the rrd database.
func ObservationFrom(s Sample, lightPct float64) Observation {
	return Observation{
		Timestamp:    s.Time,
		WindSpeedMPH: s.WindSpeedMPH,
		WindDirDeg:   s.WindDirDeg,
		TempF:        s.TempF,
		RainIn:       s.RainIn,
		Pressure:     s.Pressure,
		Humidity:     s.Humidity,
		LightPct:     lightPct,
	}
}
