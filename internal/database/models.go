package database

import (
	"fmt"
	"time"

	"github.com/chrissnell/gardensim/internal/types"
	"github.com/jackc/pgtype"
)

// SnapshotRecord is the stored form of types.Snapshot. The model inputs are
// kept as a JSON document so they can grow without schema changes.
type SnapshotRecord struct {
	BedID         string       `gorm:"primaryKey;column:bed_id"`
	PlantID       string       `gorm:"primaryKey;column:plant_id"`
	Day           time.Time    `gorm:"primaryKey;column:day;type:date"`
	SpeciesID     string       `gorm:"column:species_id"`
	SunlightHours float64      `gorm:"column:sunlight_hours"`
	ShadedHours   float64      `gorm:"column:shaded_hours"`
	TempOkHours   float64      `gorm:"column:temp_ok_hours"`
	Height        float64      `gorm:"column:height"`
	CanopyRadius  float64      `gorm:"column:canopy_radius"`
	Phase         string       `gorm:"column:phase"`
	Dead          bool         `gorm:"column:dead"`
	DeathReason   string       `gorm:"column:death_reason"`
	ModelVersion  string       `gorm:"column:model_version"`
	Inputs        pgtype.JSONB `gorm:"column:inputs;type:jsonb"`
	UpdatedAt     time.Time    `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler interface.
func (SnapshotRecord) TableName() string {
	return "plant_snapshots"
}

// UpsertColumns are overwritten when a snapshot for an existing key arrives.
var UpsertColumns = []string{
	"species_id", "sunlight_hours", "shaded_hours", "temp_ok_hours",
	"height", "canopy_radius", "phase", "dead", "death_reason",
	"model_version", "inputs", "updated_at",
}

// NewSnapshotRecord converts a snapshot for storage.
func NewSnapshotRecord(s types.Snapshot) (SnapshotRecord, error) {
	r := SnapshotRecord{
		BedID:         s.BedID,
		PlantID:       s.PlantID,
		Day:           s.Date,
		SpeciesID:     s.SpeciesID,
		SunlightHours: s.SunlightHours,
		ShadedHours:   s.ShadedHours,
		TempOkHours:   s.TempOkHours,
		Height:        s.Height,
		CanopyRadius:  s.CanopyRadius,
		Phase:         s.Phase,
		Dead:          s.Dead,
		DeathReason:   s.DeathReason,
		ModelVersion:  s.ModelVersion,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := r.Inputs.Set(s.Inputs); err != nil {
		return SnapshotRecord{}, fmt.Errorf("encoding inputs of %s: %w", s.Key(), err)
	}
	return r, nil
}

// Snapshot converts the record back.
func (r SnapshotRecord) Snapshot() (types.Snapshot, error) {
	s := types.Snapshot{
		BedID:         r.BedID,
		PlantID:       r.PlantID,
		SpeciesID:     r.SpeciesID,
		Date:          time.Date(r.Day.Year(), r.Day.Month(), r.Day.Day(), 0, 0, 0, 0, time.UTC),
		SunlightHours: r.SunlightHours,
		ShadedHours:   r.ShadedHours,
		TempOkHours:   r.TempOkHours,
		Height:        r.Height,
		CanopyRadius:  r.CanopyRadius,
		Phase:         r.Phase,
		Dead:          r.Dead,
		DeathReason:   r.DeathReason,
		ModelVersion:  r.ModelVersion,
	}
	if r.Inputs.Status == pgtype.Present {
		if err := r.Inputs.AssignTo(&s.Inputs); err != nil {
			return types.Snapshot{}, fmt.Errorf("decoding inputs of %s: %w", s.Key(), err)
		}
	}
	return s, nil
}
