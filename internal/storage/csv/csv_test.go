package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/gardensim/internal/types"
	"go.uber.org/zap"
)

func snap(plant string, day int, height float64) types.Snapshot {
	return types.Snapshot{
		BedID:        "north",
		PlantID:      plant,
		SpeciesID:    "bean",
		Date:         time.Date(2026, time.May, day, 0, 0, 0, 0, time.UTC),
		Height:       height,
		Phase:        "seedling",
		ModelVersion: "gardensim-1",
	}
}

func TestStoreSnapshotAppendsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "snapshots.csv")
	s, err := New(path, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, sn := range []types.Snapshot{snap("a", 1, 1), snap("b", 1, 2), snap("a", 2, 3)} {
		if err := s.StoreSnapshot(sn); err != nil {
			t.Fatalf("StoreSnapshot: %v", err)
		}
	}
	// Recomputed day replaces the earlier row.
	if err := s.StoreSnapshot(snap("a", 1, 9)); err != nil {
		t.Fatalf("StoreSnapshot replace: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "bed_id,plant_id,date,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "bed_id") != 1 {
		t.Errorf("header written more than once:\n%s", data)
	}

	reopened, err := New(path, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	rows := reopened.Rows()
	if len(rows) != 3 {
		t.Fatalf("reopened rows = %d, want 3", len(rows))
	}
	if rows[0].PlantID != "a" || rows[0].Date != "2026-05-01" || rows[0].Height != 9 {
		t.Errorf("first row = %+v, want replaced height 9", rows[0])
	}

	// Appending after reopen keeps a single header.
	if err := reopened.StoreSnapshot(snap("b", 2, 4)); err != nil {
		t.Fatalf("StoreSnapshot after reopen: %v", err)
	}
	data, _ = os.ReadFile(path)
	if strings.Count(string(data), "bed_id") != 1 {
		t.Errorf("header duplicated after reopen:\n%s", data)
	}
}
