package types

import "time"

// LiveStats is the state of the whole garden at one tick.
type LiveStats struct {
	Time time.Time      `json:"time"`
	Beds []BedLiveStats `json:"beds"`
}

// BedLiveStats is one bed's state at a tick.
type BedLiveStats struct {
	BedID          string            `json:"bed_id"`
	Date           string            `json:"date"`
	SunElevation   float64           `json:"sun_elevation"`
	SunAzimuth     float64           `json:"sun_azimuth"`
	Sunrise        string            `json:"sunrise,omitempty"`
	Sunset         string            `json:"sunset,omitempty"`
	SoilMoistureMm float64           `json:"soil_moisture_mm"`
	CapacityMm     float64           `json:"capacity_mm"`
	WeatherError   string            `json:"weather_error,omitempty"`
	Plants         []PlantLiveStats  `json:"plants"`
	Shadows        []ShadowLiveStats `json:"shadows,omitempty"`
}

// PlantLiveStats is one plant's state at a tick.
type PlantLiveStats struct {
	PlantID      string     `json:"plant_id"`
	SpeciesID    string     `json:"species_id"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Height       float64    `json:"height"`
	CanopyRadius float64    `json:"canopy_radius"`
	AgeDays      int        `json:"age_days"`
	Phase        string     `json:"phase"`
	Shaded       bool       `json:"shaded"`
	// SunHours and TempOkHours cover the current day up to the tick.
	SunHours     float64    `json:"sun_hours"`
	TempOkHours  float64    `json:"temp_ok_hours"`
	WaterMinMm   float64    `json:"water_min_mm"`
	WaterMaxMm   float64    `json:"water_max_mm"`
	Dead         bool       `json:"dead"`
	DeathReason  string     `json:"death_reason,omitempty"`
	DiedAt       *time.Time `json:"died_at,omitempty"`
	Details      string     `json:"details,omitempty"`
}

// ShadowLiveStats is the shadow one object casts at a tick.
type ShadowLiveStats struct {
	ObjectID string  `json:"object_id"`
	OriginX  float64 `json:"origin_x"`
	OriginY  float64 `json:"origin_y"`
	EndX     float64 `json:"end_x"`
	EndY     float64 `json:"end_y"`
	Length   float64 `json:"length"`
}
