package types

import (
	"time"
)

// Snapshot is one plant's state at the close of a simulated day. Storage
// backends key it by (BedID, PlantID, Date) and upsert, since a day may be
// recomputed.
type Snapshot struct {
	BedID         string         `json:"bed_id"`
	PlantID       string         `json:"plant_id"`
	SpeciesID     string         `json:"species_id"`
	Date          time.Time      `json:"date"`
	SunlightHours float64        `json:"sunlight_hours"`
	ShadedHours   float64        `json:"shaded_hours"`
	TempOkHours   float64        `json:"temp_ok_hours"`
	Height        float64        `json:"height"`
	CanopyRadius  float64        `json:"canopy_radius"`
	Phase         string         `json:"phase"`
	Dead          bool           `json:"dead"`
	DeathReason   string         `json:"death_reason,omitempty"`
	ModelVersion  string         `json:"model_version"`
	Inputs        SnapshotInputs `json:"inputs"`
}

// SnapshotInputs records what the day's growth was computed from.
type SnapshotInputs struct {
	TMeanC         float64  `json:"t_mean_c"`
	TMinC          float64  `json:"t_min_c"`
	TMaxC          float64  `json:"t_max_c"`
	PrecipMm       float64  `json:"precip_mm"`
	ET0Mm          *float64 `json:"et0_mm,omitempty"`
	HourlyMeasured bool     `json:"hourly_measured"`
	Overridden     bool     `json:"overridden"`
	SoilMoistureMm float64  `json:"soil_moisture_mm"`
	WaterMinMm     float64  `json:"water_min_mm"`
	WaterMaxMm     float64  `json:"water_max_mm"`
	Kc             float64  `json:"kc"`
	SunEff         float64  `json:"sun_eff"`
	TempEff        float64  `json:"temp_eff"`
	WaterEff       float64  `json:"water_eff"`
	GrowthApplied  bool     `json:"growth_applied"`
}

// Key returns the upsert key of the snapshot.
func (s Snapshot) Key() string {
	return s.BedID + "/" + s.PlantID + "/" + s.Date.Format(time.DateOnly)
}
