package database

import (
	"reflect"
	"testing"
	"time"

	"github.com/chrissnell/gardensim/internal/types"
	"github.com/jackc/pgtype"
)

func TestSnapshotRecordConversion(t *testing.T) {
	et0 := 4.2
	snap := types.Snapshot{
		BedID:         "north",
		PlantID:       "bean-1",
		SpeciesID:     "bean",
		Date:          time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC),
		SunlightHours: 11.75,
		ShadedHours:   2.5,
		TempOkHours:   18,
		Height:        12.5,
		CanopyRadius:  6.25,
		Phase:         "vegetative",
		ModelVersion:  "gardensim-1",
		Inputs: types.SnapshotInputs{
			TMeanC:         19,
			ET0Mm:          &et0,
			HourlyMeasured: true,
			SoilMoistureMm: 48,
			Kc:             1.05,
			GrowthApplied:  true,
		},
	}

	rec, err := NewSnapshotRecord(snap)
	if err != nil {
		t.Fatalf("NewSnapshotRecord: %v", err)
	}
	if rec.Inputs.Status != pgtype.Present {
		t.Fatalf("inputs status = %v, want Present", rec.Inputs.Status)
	}
	if rec.TableName() != "plant_snapshots" {
		t.Errorf("table = %q", rec.TableName())
	}

	back, err := rec.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !reflect.DeepEqual(back, snap) {
		t.Errorf("conversion changed the snapshot\n got %+v\nwant %+v", back, snap)
	}
}

func TestSnapshotRecordWithoutInputs(t *testing.T) {
	rec := SnapshotRecord{BedID: "b", PlantID: "p", Day: time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local)}
	s, err := rec.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if s.Date.Location() != time.UTC || s.Date.Day() != 2 {
		t.Errorf("date = %v, want 2026-01-02 UTC", s.Date)
	}
}
