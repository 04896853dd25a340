// Package timescaledb stores daily plant snapshots in a TimescaleDB
// hypertable.
package timescaledb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/gardensim/internal/database"
	"github.com/chrissnell/gardensim/internal/storage"
	"github.com/chrissnell/gardensim/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const writeTimeout = 10 * time.Second

// Storage holds the connection for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
	logger          *zap.SugaredLogger
}

// StartStorageEngine creates a goroutine loop to receive snapshots and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Snapshot {
	t.logger.Info("starting TimescaleDB storage engine...")
	snapshotChan := make(chan types.Snapshot, 10)
	wg.Add(1)
	go storage.ProcessSnapshots(ctx, wg, snapshotChan, t.StoreSnapshot, "timescaledb", t.logger)
	return snapshotChan
}

// StoreSnapshot upserts a snapshot keyed by (bed_id, plant_id, day).
func (t *Storage) StoreSnapshot(s types.Snapshot) error {
	rec, err := database.NewSnapshotRecord(s)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err = upsert(t.TimescaleDBConn.WithContext(ctx), &rec).Error
	if err != nil {
		return fmt.Errorf("could not store snapshot %s: %w", s.Key(), err)
	}
	return nil
}

func upsert(db *gorm.DB, rec *database.SnapshotRecord) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "bed_id"},
			{Name: "plant_id"},
			{Name: "day"},
		},
		DoUpdates: clause.AssignmentColumns(database.UpsertColumns),
	}).Create(rec)
}

// Snapshots returns the stored snapshots of a bed in day order.
func (t *Storage) Snapshots(ctx context.Context, bedID string) ([]types.Snapshot, error) {
	var recs []database.SnapshotRecord
	err := t.TimescaleDBConn.WithContext(ctx).
		Where("bed_id = ?", bedID).
		Order("day, plant_id").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("error querying snapshots for bed %s: %w", bedID, err)
	}

	out := make([]types.Snapshot, 0, len(recs))
	for _, r := range recs {
		s, err := r.Snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// New connects to TimescaleDB and creates the snapshot schema.
func New(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*Storage, error) {
	db, err := database.CreateConnection(connectionString, logger)
	if err != nil {
		return nil, err
	}

	t := &Storage{TimescaleDBConn: db, logger: logger}
	if err := t.createSchema(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Storage) createSchema(ctx context.Context) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"TimescaleDB extension", createExtensionSQL},
		{"snapshot table", createTableSQL},
		{"hypertable", createHypertableSQL},
		{"indexes", createIndexesSQL},
		{"weekly view", createWeeklyViewSQL},
		{"weekly aggregation policy", addAggregationPolicyWeeklySQL},
	}

	for _, step := range steps {
		t.logger.Infof("creating %s...", step.name)
		if err := t.TimescaleDBConn.WithContext(ctx).Exec(step.sql).Error; err != nil {
			return fmt.Errorf("could not create %s: %w", step.name, err)
		}
	}
	return nil
}
