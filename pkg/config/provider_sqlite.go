package config

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrissnell/gardensim/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	defaultConfigName = "default"
	migrationTable    = "config_schema_migrations"

	kindPlant     = "plant"
	kindTree      = "tree"
	kindStructure = "structure"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the configuration database at dbPath. The schema
// is not created; call CreateSchema for a new database.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Migrations returns the embedded configuration schema migrations.
func Migrations() migrate.MigrationProvider {
	return migrate.NewFSProvider(migrations, "migrations", migrationTable, migrate.DriverSQLite)
}

// CreateSchema brings the configuration schema up to date.
func (s *SQLiteProvider) CreateSchema(logger *zap.SugaredLogger) error {
	if err := migrate.NewMigrator(s.db, Migrations(), logger).MigrateUp(); err != nil {
		return fmt.Errorf("failed to migrate configuration schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	sim, err := s.loadSimulationRow(config)
	if err != nil {
		return nil, fmt.Errorf("failed to load simulation: %w", err)
	}
	config.Simulation = *sim

	beds, err := s.GetBeds()
	if err != nil {
		return nil, fmt.Errorf("failed to load beds: %w", err)
	}
	config.Beds = beds

	species, err := s.GetSpecies()
	if err != nil {
		return nil, fmt.Errorf("failed to load species: %w", err)
	}
	config.Species = species

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	return config, nil
}

// GetSimulation returns the simulation settings
func (s *SQLiteProvider) GetSimulation() (*SimulationData, error) {
	return s.loadSimulationRow(&ConfigData{})
}

// loadSimulationRow reads the simulation row. The override, weather and live
// stats sections share the row and are written into config.
func (s *SQLiteProvider) loadSimulationRow(config *ConfigData) (*SimulationData, error) {
	query := `
		SELECT start_date, tick_period, initial_mode, run_for_days, sample_resolution,
		       water_use_factor, fallback_et0, root_depth_m, awc_mm_per_m, default_kc,
		       treat_daily_mean_as_hourly, grace_cold_hours, grace_heat_hours,
		       grace_dry_hours, grace_wet_hours, sun_grace_days, model_version,
		       override_enabled, override_temp_c, override_soil_moisture_mm,
		       weather_source, forecast_endpoint, climate_endpoint, climate_model,
		       weather_timeout, weather_cache_entries,
		       static_t_mean_c, static_t_min_c, static_t_max_c, static_precip_mm,
		       static_et0_mm, static_hourly_temp_c,
		       live_stats_enabled, live_stats_format, live_stats_path
		FROM simulation
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
	`

	var sim SimulationData
	var startDate, tickPeriod, initialMode, sampleRes, modelVersion sql.NullString
	var source, forecast, climate, climateModel, timeout, hourly sql.NullString
	var lsFormat, lsPath sql.NullString
	var overrideTemp, overrideSoil, staticET0 sql.NullFloat64

	err := s.db.QueryRow(query, defaultConfigName).Scan(
		&startDate, &tickPeriod, &initialMode, &sim.RunForDays, &sampleRes,
		&sim.WaterUseFactor, &sim.FallbackET0, &sim.RootDepthM, &sim.AWCMmPerM, &sim.DefaultKc,
		&sim.TreatDailyMeanAsHourly, &sim.GraceColdHours, &sim.GraceHeatHours,
		&sim.GraceDryHours, &sim.GraceWetHours, &sim.SunGraceDays, &modelVersion,
		&config.Override.Enabled, &overrideTemp, &overrideSoil,
		&source, &forecast, &climate, &climateModel,
		&timeout, &config.Weather.CacheEntries,
		&config.Weather.Static.TMeanC, &config.Weather.Static.TMinC, &config.Weather.Static.TMaxC,
		&config.Weather.Static.PrecipMm, &staticET0, &hourly,
		&config.LiveStats.Enabled, &lsFormat, &lsPath,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &sim, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation: %w", err)
	}

	sim.StartDate = startDate.String
	sim.TickPeriod = tickPeriod.String
	sim.InitialMode = initialMode.String
	sim.SampleResolution = sampleRes.String
	sim.ModelVersion = modelVersion.String

	config.Override.TempC = floatPtr(overrideTemp)
	config.Override.SoilMoistureMm = floatPtr(overrideSoil)

	config.Weather.Source = source.String
	config.Weather.ForecastEndpoint = forecast.String
	config.Weather.ClimateEndpoint = climate.String
	config.Weather.ClimateModel = climateModel.String
	config.Weather.Timeout = timeout.String
	config.Weather.Static.ET0Mm = floatPtr(staticET0)
	if hourly.Valid && hourly.String != "" {
		if err := json.Unmarshal([]byte(hourly.String), &config.Weather.Static.HourlyTempC); err != nil {
			return nil, fmt.Errorf("failed to decode static hourly temperatures: %w", err)
		}
	}

	config.LiveStats.Format = lsFormat.String
	config.LiveStats.Path = lsPath.String

	return &sim, nil
}

// GetBeds returns bed configurations, with their objects, in saved order
func (s *SQLiteProvider) GetBeds() ([]BedData, error) {
	query := `
		SELECT id, latitude, longitude, timezone, capacity_mm, moisture_mm, percolation_mm_per_day
		FROM beds
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY position
	`

	rows, err := s.db.Query(query, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query beds: %w", err)
	}
	defer rows.Close()

	var beds []BedData
	index := make(map[string]int)
	for rows.Next() {
		var bed BedData
		var tz sql.NullString
		err := rows.Scan(&bed.ID, &bed.Latitude, &bed.Longitude, &tz,
			&bed.Soil.CapacityMm, &bed.Soil.MoistureMm, &bed.Soil.PercolationMmPerDay)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bed row: %w", err)
		}
		bed.Timezone = tz.String
		index[bed.ID] = len(beds)
		beds = append(beds, bed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read beds: %w", err)
	}

	if err := s.loadObjects(beds, index); err != nil {
		return nil, err
	}
	return beds, nil
}

func (s *SQLiteProvider) loadObjects(beds []BedData, index map[string]int) error {
	query := `
		SELECT bed_id, kind, object_id, species_id, x, y, height, canopy_radius, width, depth, planted_at
		FROM bed_objects
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY bed_id, position
	`

	rows, err := s.db.Query(query, defaultConfigName)
	if err != nil {
		return fmt.Errorf("failed to query bed objects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bedID, kind string
		var objectID, speciesID, plantedAt sql.NullString
		var x, y, height, radius, width, depth float64

		err := rows.Scan(&bedID, &kind, &objectID, &speciesID, &x, &y, &height, &radius, &width, &depth, &plantedAt)
		if err != nil {
			return fmt.Errorf("failed to scan bed object row: %w", err)
		}

		i, ok := index[bedID]
		if !ok {
			return fmt.Errorf("bed object %q references unknown bed %q", objectID.String, bedID)
		}
		bed := &beds[i]

		switch kind {
		case kindPlant:
			bed.Plants = append(bed.Plants, PlantData{
				ID:        objectID.String,
				Species:   speciesID.String,
				X:         x,
				Y:         y,
				PlantedAt: plantedAt.String,
			})
		case kindTree:
			bed.Trees = append(bed.Trees, TreeData{
				ID:           objectID.String,
				X:            x,
				Y:            y,
				Height:       height,
				CanopyRadius: radius,
			})
		case kindStructure:
			bed.Structures = append(bed.Structures, StructureData{
				ID:     objectID.String,
				X:      x,
				Y:      y,
				Height: height,
				Width:  width,
				Depth:  depth,
			})
		default:
			return fmt.Errorf("bed %s: unknown object kind %q", bedID, kind)
		}
	}
	return rows.Err()
}

// GetSpecies returns the species reference data
func (s *SQLiteProvider) GetSpecies() ([]SpeciesData, error) {
	query := `
		SELECT id, name, sun_req, max_height, max_canopy_radius, maturity, base_growth_rate,
		       temp_min, temp_max, water_min, water_max,
		       grace_cold_hours, grace_heat_hours, grace_dry_hours, grace_wet_hours,
		       sun_grace_days, germination_days, flowering_days, fruiting_days, lifespan_days,
		       kc_initial, kc_mid, kc_late, root_depth_m
		FROM species
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY id
	`

	rows, err := s.db.Query(query, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query species: %w", err)
	}
	defer rows.Close()

	var species []SpeciesData
	for rows.Next() {
		var sp SpeciesData
		var name, maturity sql.NullString
		var rate, tMin, tMax, wMin, wMax sql.NullFloat64
		var gCold, gHeat, gDry, gWet sql.NullFloat64
		var sunGrace, flowering, fruiting, lifespan sql.NullInt64
		var kcInitial, kcMid, kcLate, rootDepth sql.NullFloat64

		err := rows.Scan(&sp.ID, &name, &sp.SunReq, &sp.MaxHeight, &sp.MaxCanopyRadius, &maturity, &rate,
			&tMin, &tMax, &wMin, &wMax,
			&gCold, &gHeat, &gDry, &gWet,
			&sunGrace, &sp.GerminationDays, &flowering, &fruiting, &lifespan,
			&kcInitial, &kcMid, &kcLate, &rootDepth)
		if err != nil {
			return nil, fmt.Errorf("failed to scan species row: %w", err)
		}

		sp.Name = name.String
		sp.Maturity = maturity.String
		sp.BaseGrowthRate = floatPtr(rate)
		sp.TempMin, sp.TempMax = floatPtr(tMin), floatPtr(tMax)
		sp.WaterMin, sp.WaterMax = floatPtr(wMin), floatPtr(wMax)
		sp.GraceColdHours, sp.GraceHeatHours = floatPtr(gCold), floatPtr(gHeat)
		sp.GraceDryHours, sp.GraceWetHours = floatPtr(gDry), floatPtr(gWet)
		sp.SunGraceDays = intPtr(sunGrace)
		sp.FloweringDays, sp.FruitingDays, sp.LifespanDays = intPtr(flowering), intPtr(fruiting), intPtr(lifespan)
		sp.RootDepthM = floatPtr(rootDepth)
		if kcInitial.Valid && kcMid.Valid && kcLate.Valid {
			sp.Kc = &KcData{Initial: kcInitial.Float64, Mid: kcMid.Float64, Late: kcLate.Float64}
		}

		species = append(species, sp)
	}
	return species, rows.Err()
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	query := `
		SELECT backend_type, connection_string, path
		FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = ?) AND enabled = 1
	`

	rows, err := s.db.Query(query, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType string
		var connectionString, path sql.NullString

		if err := rows.Scan(&backendType, &connectionString, &path); err != nil {
			return nil, fmt.Errorf("failed to scan storage config row: %w", err)
		}

		switch backendType {
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: connectionString.String}
		case "sqlite":
			storage.SQLite = &SQLiteData{Path: path.String}
		case "csv":
			storage.CSV = &CSVData{Path: path.String}
		}
	}

	return storage, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData in a single
// transaction.
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.insertConfig(tx, defaultConfigName)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	if err := s.insertSimulation(tx, configID, configData); err != nil {
		return fmt.Errorf("failed to insert simulation: %w", err)
	}

	for i := range configData.Beds {
		if err := s.insertBed(tx, configID, i, &configData.Beds[i]); err != nil {
			return fmt.Errorf("failed to insert bed %s: %w", configData.Beds[i].ID, err)
		}
	}

	for i := range configData.Species {
		if err := s.insertSpecies(tx, configID, &configData.Species[i]); err != nil {
			return fmt.Errorf("failed to insert species %s: %w", configData.Species[i].ID, err)
		}
	}

	if err := s.insertStorageConfigs(tx, configID, &configData.Storage); err != nil {
		return fmt.Errorf("failed to insert storage configs: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteProvider) insertConfig(tx *sql.Tx, name string) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO configs (name) VALUES (?)
		ON CONFLICT (name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, name)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(`SELECT id FROM configs WHERE name = ?`, name).Scan(&id)
	return id, err
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	queries := []string{
		"DELETE FROM bed_objects WHERE config_id = ?",
		"DELETE FROM beds WHERE config_id = ?",
		"DELETE FROM species WHERE config_id = ?",
		"DELETE FROM storage_configs WHERE config_id = ?",
		"DELETE FROM simulation WHERE config_id = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, configID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertSimulation(tx *sql.Tx, configID int64, c *ConfigData) error {
	var hourly sql.NullString
	if len(c.Weather.Static.HourlyTempC) > 0 {
		b, err := json.Marshal(c.Weather.Static.HourlyTempC)
		if err != nil {
			return err
		}
		hourly = sql.NullString{String: string(b), Valid: true}
	}

	sim := &c.Simulation
	query := `
		INSERT INTO simulation (
			config_id, start_date, tick_period, initial_mode, run_for_days, sample_resolution,
			water_use_factor, fallback_et0, root_depth_m, awc_mm_per_m, default_kc,
			treat_daily_mean_as_hourly, grace_cold_hours, grace_heat_hours,
			grace_dry_hours, grace_wet_hours, sun_grace_days, model_version,
			override_enabled, override_temp_c, override_soil_moisture_mm,
			weather_source, forecast_endpoint, climate_endpoint, climate_model,
			weather_timeout, weather_cache_entries,
			static_t_mean_c, static_t_min_c, static_t_max_c, static_precip_mm,
			static_et0_mm, static_hourly_temp_c,
			live_stats_enabled, live_stats_format, live_stats_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query,
		configID, nullString(sim.StartDate), nullString(sim.TickPeriod), nullString(sim.InitialMode),
		sim.RunForDays, nullString(sim.SampleResolution),
		sim.WaterUseFactor, sim.FallbackET0, sim.RootDepthM, sim.AWCMmPerM, sim.DefaultKc,
		sim.TreatDailyMeanAsHourly, sim.GraceColdHours, sim.GraceHeatHours,
		sim.GraceDryHours, sim.GraceWetHours, sim.SunGraceDays, nullString(sim.ModelVersion),
		c.Override.Enabled, nullFloat64(c.Override.TempC), nullFloat64(c.Override.SoilMoistureMm),
		nullString(c.Weather.Source), nullString(c.Weather.ForecastEndpoint),
		nullString(c.Weather.ClimateEndpoint), nullString(c.Weather.ClimateModel),
		nullString(c.Weather.Timeout), c.Weather.CacheEntries,
		c.Weather.Static.TMeanC, c.Weather.Static.TMinC, c.Weather.Static.TMaxC,
		c.Weather.Static.PrecipMm, nullFloat64(c.Weather.Static.ET0Mm), hourly,
		c.LiveStats.Enabled, nullString(c.LiveStats.Format), nullString(c.LiveStats.Path),
	)
	return err
}

func (s *SQLiteProvider) insertBed(tx *sql.Tx, configID int64, position int, bed *BedData) error {
	query := `
		INSERT INTO beds (
			config_id, id, position, latitude, longitude, timezone,
			capacity_mm, moisture_mm, percolation_mm_per_day
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query, configID, bed.ID, position, bed.Latitude, bed.Longitude,
		nullString(bed.Timezone), bed.Soil.CapacityMm, bed.Soil.MoistureMm, bed.Soil.PercolationMmPerDay)
	if err != nil {
		return err
	}

	insert := func(pos int, kind, objectID, speciesID string, x, y, height, radius, width, depth float64, plantedAt string) error {
		_, err := tx.Exec(`
			INSERT INTO bed_objects (
				config_id, bed_id, position, kind, object_id, species_id,
				x, y, height, canopy_radius, width, depth, planted_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, configID, bed.ID, pos, kind, nullString(objectID), nullString(speciesID),
			x, y, height, radius, width, depth, nullString(plantedAt))
		return err
	}

	pos := 0
	for _, p := range bed.Plants {
		if err := insert(pos, kindPlant, p.ID, p.Species, p.X, p.Y, 0, 0, 0, 0, p.PlantedAt); err != nil {
			return fmt.Errorf("plant %s: %w", p.ID, err)
		}
		pos++
	}
	for _, t := range bed.Trees {
		if err := insert(pos, kindTree, t.ID, "", t.X, t.Y, t.Height, t.CanopyRadius, 0, 0, ""); err != nil {
			return fmt.Errorf("tree %s: %w", t.ID, err)
		}
		pos++
	}
	for _, st := range bed.Structures {
		if err := insert(pos, kindStructure, st.ID, "", st.X, st.Y, st.Height, 0, st.Width, st.Depth, ""); err != nil {
			return fmt.Errorf("structure %s: %w", st.ID, err)
		}
		pos++
	}
	return nil
}

func (s *SQLiteProvider) insertSpecies(tx *sql.Tx, configID int64, sp *SpeciesData) error {
	var kcInitial, kcMid, kcLate sql.NullFloat64
	if sp.Kc != nil {
		kcInitial = sql.NullFloat64{Float64: sp.Kc.Initial, Valid: true}
		kcMid = sql.NullFloat64{Float64: sp.Kc.Mid, Valid: true}
		kcLate = sql.NullFloat64{Float64: sp.Kc.Late, Valid: true}
	}

	query := `
		INSERT INTO species (
			config_id, id, name, sun_req, max_height, max_canopy_radius, maturity, base_growth_rate,
			temp_min, temp_max, water_min, water_max,
			grace_cold_hours, grace_heat_hours, grace_dry_hours, grace_wet_hours,
			sun_grace_days, germination_days, flowering_days, fruiting_days, lifespan_days,
			kc_initial, kc_mid, kc_late, root_depth_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query,
		configID, sp.ID, nullString(sp.Name), sp.SunReq, sp.MaxHeight, sp.MaxCanopyRadius,
		nullString(sp.Maturity), nullFloat64(sp.BaseGrowthRate),
		nullFloat64(sp.TempMin), nullFloat64(sp.TempMax), nullFloat64(sp.WaterMin), nullFloat64(sp.WaterMax),
		nullFloat64(sp.GraceColdHours), nullFloat64(sp.GraceHeatHours),
		nullFloat64(sp.GraceDryHours), nullFloat64(sp.GraceWetHours),
		nullInt(sp.SunGraceDays), sp.GerminationDays,
		nullInt(sp.FloweringDays), nullInt(sp.FruitingDays), nullInt(sp.LifespanDays),
		kcInitial, kcMid, kcLate, nullFloat64(sp.RootDepthM),
	)
	return err
}

func (s *SQLiteProvider) insertStorageConfigs(tx *sql.Tx, configID int64, storage *StorageData) error {
	query := `
		INSERT INTO storage_configs (config_id, backend_type, enabled, connection_string, path)
		VALUES (?, ?, 1, ?, ?)
	`

	if storage.TimescaleDB != nil {
		if _, err := tx.Exec(query, configID, "timescaledb", storage.TimescaleDB.ConnectionString, nil); err != nil {
			return err
		}
	}
	if storage.SQLite != nil {
		if _, err := tx.Exec(query, configID, "sqlite", nil, storage.SQLite.Path); err != nil {
			return err
		}
	}
	if storage.CSV != nil {
		if _, err := tx.Exec(query, configID, "csv", nil, storage.CSV.Path); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
