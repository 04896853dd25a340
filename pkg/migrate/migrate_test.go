package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"m/001_create_beds.up.sql":   {Data: []byte(`CREATE TABLE beds (id TEXT PRIMARY KEY);`)},
		"m/001_create_beds.down.sql": {Data: []byte(`DROP TABLE beds;`)},
		"m/002_add_plants.up.sql":    {Data: []byte(`CREATE TABLE plants (id TEXT PRIMARY KEY, bed_id TEXT);`)},
		"m/002_add_plants.down.sql":  {Data: []byte(`DROP TABLE plants;`)},
		"m/README.md":                {Data: []byte(`ignored`)},
		"other/003_unrelated.up.sql": {Data: []byte(`CREATE TABLE nope (id INTEGER);`)},
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return n == 1
}

func TestGetMigrations(t *testing.T) {
	p := NewFSProvider(testFS(), "m", "", "")
	migrations, err := p.GetMigrations()
	if err != nil {
		t.Fatalf("GetMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create beds" {
		t.Errorf("first migration = %d %q", migrations[0].Version, migrations[0].Name)
	}
	if migrations[1].Up == "" || migrations[1].Down == "" {
		t.Errorf("second migration missing up or down SQL")
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "m", "", DriverSQLite), nil)

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	v, err := m.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion: %v", err)
	}
	if v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
	if !tableExists(t, db, "plants") {
		t.Fatal("plants table missing after MigrateUp")
	}

	// Running again is a no-op.
	if err := m.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}

	if err := m.MigrateDown(1); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	if v, _ := m.GetCurrentVersion(); v != 1 {
		t.Errorf("version after rollback = %d, want 1", v)
	}
	if tableExists(t, db, "plants") {
		t.Error("plants table still present after rollback")
	}
	if !tableExists(t, db, "beds") {
		t.Error("beds table dropped by rollback to 1")
	}

	pending, err := m.GetPendingMigrations()
	if err != nil {
		t.Fatalf("GetPendingMigrations: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("pending = %+v, want only version 2", pending)
	}
}

func TestMigrateDownRejectsHigherTarget(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "m", "", ""), nil)
	if err := m.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo: %v", err)
	}
	if err := m.MigrateDown(1); err == nil {
		t.Error("MigrateDown to the current version should fail")
	}
}
