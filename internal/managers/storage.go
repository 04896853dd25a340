// Package managers wires the configured storage backends to the stream of
// daily snapshots produced by the simulation.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/gardensim/internal/storage"
	"github.com/chrissnell/gardensim/internal/storage/csv"
	"github.com/chrissnell/gardensim/internal/storage/sqlite"
	"github.com/chrissnell/gardensim/internal/storage/timescaledb"
	"github.com/chrissnell/gardensim/internal/types"
	"github.com/chrissnell/gardensim/pkg/config"
	"go.uber.org/zap"
)

const distributorBuffer = 20

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines             []StorageEngine
	SnapshotDistributor chan types.Snapshot

	logger  *zap.SugaredLogger
	closers []func() error
	once    sync.Once
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing snapshots to the engine
type StorageEngine struct {
	Name   string
	Engine storage.StorageEngineInterface
	C      chan<- types.Snapshot
}

// NewStorageManager creates a StorageManager with every backend named in c.
// Engines are started against ctx; call Close to flush them.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c config.StorageData, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := &StorageManager{
		SnapshotDistributor: make(chan types.Snapshot, distributorBuffer),
		logger:              logger,
	}
	fail := func(err error) (*StorageManager, error) {
		for _, e := range s.Engines {
			close(e.C)
		}
		s.Release()
		return nil, err
	}

	if c.TimescaleDB != nil && c.TimescaleDB.ConnectionString != "" {
		t, err := timescaledb.New(ctx, c.TimescaleDB.ConnectionString, logger)
		if err != nil {
			return fail(fmt.Errorf("could not add TimescaleDB storage backend: %w", err))
		}
		s.AddEngine(ctx, wg, "timescaledb", t)
	}

	if c.SQLite != nil && c.SQLite.Path != "" {
		sq, err := sqlite.New(c.SQLite.Path, logger)
		if err != nil {
			return fail(fmt.Errorf("could not add SQLite storage backend: %w", err))
		}
		s.AddEngine(ctx, wg, "sqlite", sq)
		s.closers = append(s.closers, sq.Close)
	}

	if c.CSV != nil && c.CSV.Path != "" {
		cs, err := csv.New(c.CSV.Path, logger)
		if err != nil {
			return fail(fmt.Errorf("could not add CSV storage backend: %w", err))
		}
		s.AddEngine(ctx, wg, "csv", cs)
		s.closers = append(s.closers, cs.Close)
	}

	return s, nil
}

// AddEngine starts an engine and adds it to the fan-out. Engines must be
// added before Start.
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, name string, engine storage.StorageEngineInterface) {
	s.Engines = append(s.Engines, StorageEngine{
		Name:   name,
		Engine: engine,
		C:      engine.StartStorageEngine(ctx, wg),
	})
	s.logger.Infow("storage engine added", "engine", name)
}

// Start runs the distributor that fans snapshots out to every engine.
func (s *StorageManager) Start(wg *sync.WaitGroup) {
	wg.Add(1)
	go s.startSnapshotDistributor(wg)
}

// GetSnapshotDistributor returns the channel the simulation writes to.
func (s *StorageManager) GetSnapshotDistributor() chan<- types.Snapshot {
	return s.SnapshotDistributor
}

// Close stops accepting snapshots. Buffered ones are delivered, then every
// engine channel is closed so the engines exit once drained. Wait on the
// WaitGroup before calling Release.
func (s *StorageManager) Close() {
	s.once.Do(func() { close(s.SnapshotDistributor) })
}

// Release closes the backends that hold files or connections.
func (s *StorageManager) Release() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// startSnapshotDistributor receives snapshots from the simulation and fans
// them out to the storage backends
func (s *StorageManager) startSnapshotDistributor(wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		for _, e := range s.Engines {
			close(e.C)
		}
	}()

	count := 0
	for snap := range s.SnapshotDistributor {
		count++
		for _, e := range s.Engines {
			e.C <- snap
		}
	}
	s.logger.Infow("snapshot distributor stopped", "snapshots", count)
}
