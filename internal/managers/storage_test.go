package managers

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/gardensim/internal/storage"
	"github.com/chrissnell/gardensim/internal/types"
	"github.com/chrissnell/gardensim/pkg/config"
	"go.uber.org/zap"
)

type recordingEngine struct {
	mu   sync.Mutex
	seen []types.Snapshot
}

func (r *recordingEngine) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Snapshot {
	ch := make(chan types.Snapshot)
	wg.Add(1)
	go storage.ProcessSnapshots(ctx, wg, ch, func(s types.Snapshot) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen = append(r.seen, s)
		return nil
	}, "recording", zap.NewNop().Sugar())
	return ch
}

func TestDistributorFansOutAndFlushes(t *testing.T) {
	ctx := context.Background()
	var wg sync.WaitGroup

	sm, err := NewStorageManager(ctx, &wg, config.StorageData{}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewStorageManager: %v", err)
	}
	a, b := &recordingEngine{}, &recordingEngine{}
	sm.AddEngine(ctx, &wg, "a", a)
	sm.AddEngine(ctx, &wg, "b", b)
	sm.Start(&wg)

	out := sm.GetSnapshotDistributor()
	for i := 0; i < 5; i++ {
		out <- types.Snapshot{PlantID: "p", Date: time.Date(2026, 5, i+1, 0, 0, 0, 0, time.UTC)}
	}
	sm.Close()
	sm.Close()
	wg.Wait()

	for name, e := range map[string]*recordingEngine{"a": a, "b": b} {
		if len(e.seen) != 5 {
			t.Errorf("engine %s got %d snapshots, want 5", name, len(e.seen))
		}
	}
	if err := sm.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
}

func TestNewStorageManagerFileBackends(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageData{
		SQLite: &config.SQLiteData{Path: filepath.Join(dir, "snapshots.db")},
		CSV:    &config.CSVData{Path: filepath.Join(dir, "snapshots.csv")},
	}

	var wg sync.WaitGroup
	sm, err := NewStorageManager(context.Background(), &wg, cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewStorageManager: %v", err)
	}
	if len(sm.Engines) != 2 {
		t.Fatalf("got %d engines, want 2", len(sm.Engines))
	}
	sm.Start(&wg)

	sm.GetSnapshotDistributor() <- types.Snapshot{
		BedID:        "north",
		PlantID:      "bean-1",
		SpeciesID:    "bean",
		Date:         time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Phase:        "seedling",
		ModelVersion: "gardensim-1",
	}
	sm.Close()
	wg.Wait()
	if err := sm.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	data, err := os.ReadFile(cfg.CSV.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Error("CSV backend wrote nothing")
	}
}
