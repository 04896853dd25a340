// Package sqlite stores daily plant snapshots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/gardensim/internal/database"
	"github.com/chrissnell/gardensim/internal/storage"
	"github.com/chrissnell/gardensim/internal/types"
	"github.com/chrissnell/gardensim/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const upsertSQL = `
INSERT INTO plant_snapshots (
    bed_id, plant_id, day, species_id, sunlight_hours, shaded_hours, temp_ok_hours,
    height, canopy_radius, phase, dead, death_reason, model_version, inputs, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (bed_id, plant_id, day) DO UPDATE SET
    species_id = excluded.species_id,
    sunlight_hours = excluded.sunlight_hours,
    shaded_hours = excluded.shaded_hours,
    temp_ok_hours = excluded.temp_ok_hours,
    height = excluded.height,
    canopy_radius = excluded.canopy_radius,
    phase = excluded.phase,
    dead = excluded.dead,
    death_reason = excluded.death_reason,
    model_version = excluded.model_version,
    inputs = excluded.inputs,
    updated_at = excluded.updated_at
`

// Migrations returns the embedded snapshot schema migrations.
func Migrations() migrate.MigrationProvider {
	return migrate.NewFSProvider(migrations, "migrations", "", migrate.DriverSQLite)
}

// Storage is a SQLite snapshot backend.
type Storage struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New opens (creating if needed) the database at path and migrates it.
func New(path string, logger *zap.SugaredLogger) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := migrate.NewMigrator(db, Migrations(), logger).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate snapshot database: %w", err)
	}

	return &Storage{db: db, logger: logger}, nil
}

// StartStorageEngine creates a goroutine loop to receive snapshots and
// write them to SQLite
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Snapshot {
	s.logger.Info("starting SQLite storage engine...")
	snapshotChan := make(chan types.Snapshot, 10)
	wg.Add(1)
	go storage.ProcessSnapshots(ctx, wg, snapshotChan, s.StoreSnapshot, "sqlite", s.logger)
	return snapshotChan
}

// StoreSnapshot upserts a snapshot keyed by (bed_id, plant_id, day).
func (s *Storage) StoreSnapshot(snap types.Snapshot) error {
	rec, err := database.NewSnapshotRecord(snap)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(upsertSQL,
		rec.BedID, rec.PlantID, rec.Day.Format(time.DateOnly), rec.SpeciesID,
		rec.SunlightHours, rec.ShadedHours, rec.TempOkHours,
		rec.Height, rec.CanopyRadius, rec.Phase, rec.Dead, rec.DeathReason,
		rec.ModelVersion, rec.Inputs, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not store snapshot %s: %w", snap.Key(), err)
	}
	return nil
}

// Snapshots returns every stored snapshot of a bed in day order. An empty
// bedID returns all beds.
func (s *Storage) Snapshots(ctx context.Context, bedID string) ([]types.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bed_id, plant_id, day, species_id, sunlight_hours, shaded_hours, temp_ok_hours,
		       height, canopy_radius, phase, dead, death_reason, model_version, inputs
		FROM plant_snapshots
		WHERE ? = '' OR bed_id = ?
		ORDER BY bed_id, day, plant_id
	`, bedID, bedID)
	if err != nil {
		return nil, fmt.Errorf("error querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []types.Snapshot
	for rows.Next() {
		var rec database.SnapshotRecord
		var day string
		var reason sql.NullString

		err := rows.Scan(&rec.BedID, &rec.PlantID, &day, &rec.SpeciesID,
			&rec.SunlightHours, &rec.ShadedHours, &rec.TempOkHours,
			&rec.Height, &rec.CanopyRadius, &rec.Phase, &rec.Dead, &reason,
			&rec.ModelVersion, &rec.Inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if rec.Day, err = time.Parse(time.DateOnly, day); err != nil {
			return nil, fmt.Errorf("bad day %q in snapshot row: %w", day, err)
		}
		rec.DeathReason = reason.String

		snap, err := rec.Snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}
