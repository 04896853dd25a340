// Package csv writes daily plant snapshots to a CSV file, one row per plant
// per day.
package csv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chrissnell/gardensim/internal/storage"
	"github.com/chrissnell/gardensim/internal/types"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

// Row is the CSV form of a snapshot.
type Row struct {
	BedID          string  `csv:"bed_id"`
	PlantID        string  `csv:"plant_id"`
	Date           string  `csv:"date"`
	SpeciesID      string  `csv:"species_id"`
	SunlightHours  float64 `csv:"sunlight_hours"`
	ShadedHours    float64 `csv:"shaded_hours"`
	TempOkHours    float64 `csv:"temp_ok_hours"`
	Height         float64 `csv:"height"`
	CanopyRadius   float64 `csv:"canopy_radius"`
	Phase          string  `csv:"phase"`
	Dead           bool    `csv:"dead"`
	DeathReason    string  `csv:"death_reason"`
	TMeanC         float64 `csv:"t_mean_c"`
	TMinC          float64 `csv:"t_min_c"`
	TMaxC          float64 `csv:"t_max_c"`
	PrecipMm       float64 `csv:"precip_mm"`
	SoilMoistureMm float64 `csv:"soil_moisture_mm"`
	WaterEff       float64 `csv:"water_eff"`
	GrowthApplied  bool    `csv:"growth_applied"`
	ModelVersion   string  `csv:"model_version"`
}

func (r Row) key() string {
	return r.BedID + "/" + r.PlantID + "/" + r.Date
}

// NewRow flattens a snapshot.
func NewRow(s types.Snapshot) Row {
	return Row{
		BedID:          s.BedID,
		PlantID:        s.PlantID,
		Date:           s.Date.Format(time.DateOnly),
		SpeciesID:      s.SpeciesID,
		SunlightHours:  s.SunlightHours,
		ShadedHours:    s.ShadedHours,
		TempOkHours:    s.TempOkHours,
		Height:         s.Height,
		CanopyRadius:   s.CanopyRadius,
		Phase:          s.Phase,
		Dead:           s.Dead,
		DeathReason:    s.DeathReason,
		TMeanC:         s.Inputs.TMeanC,
		TMinC:          s.Inputs.TMinC,
		TMaxC:          s.Inputs.TMaxC,
		PrecipMm:       s.Inputs.PrecipMm,
		SoilMoistureMm: s.Inputs.SoilMoistureMm,
		WaterEff:       s.Inputs.WaterEff,
		GrowthApplied:  s.Inputs.GrowthApplied,
		ModelVersion:   s.ModelVersion,
	}
}

// Storage appends new rows to the file and rewrites it when a stored day is
// recomputed.
type Storage struct {
	path   string
	logger *zap.SugaredLogger

	mu    sync.Mutex
	file  *os.File
	rows  []*Row
	index map[string]int
}

// New opens path, keeping any rows already in it.
func New(path string, logger *zap.SugaredLogger) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s := &Storage{path: path, logger: logger, file: f, index: make(map[string]int)}
	if err := gocsv.UnmarshalFile(f, &s.rows); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		f.Close()
		return nil, fmt.Errorf("reading existing rows from %s: %w", path, err)
	}
	for i, r := range s.rows {
		s.index[r.key()] = i
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// StartStorageEngine creates a goroutine loop to receive snapshots and
// write them to the CSV file
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Snapshot {
	s.logger.Infof("starting CSV storage engine at %s...", s.path)
	snapshotChan := make(chan types.Snapshot, 10)
	wg.Add(1)
	go storage.ProcessSnapshots(ctx, wg, snapshotChan, s.StoreSnapshot, "csv", s.logger)
	return snapshotChan
}

// StoreSnapshot writes or replaces the snapshot's row.
func (s *Storage) StoreSnapshot(snap types.Snapshot) error {
	row := NewRow(snap)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[row.key()]; ok {
		s.rows[i] = &row
		return s.rewrite()
	}

	s.index[row.key()] = len(s.rows)
	s.rows = append(s.rows, &row)

	records := []*Row{&row}
	if len(s.rows) == 1 {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.file); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (s *Storage) rewrite() error {
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("truncating %s: %w", s.path, err)
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := gocsv.Marshal(s.rows, s.file); err != nil {
		return fmt.Errorf("rewriting %s: %w", s.path, err)
	}
	return nil
}

// Rows returns a copy of the rows written so far.
func (s *Storage) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Row, len(s.rows))
	for i, r := range s.rows {
		out[i] = *r
	}
	return out
}

// Close flushes and closes the file.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
