package config

import (
	"errors"
	"fmt"
)

// ErrNoBeds is returned by Validate when a configuration declares no beds.
var ErrNoBeds = errors.New("configuration declares no beds")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSimulation() (*SimulationData, error)
	GetBeds() ([]BedData, error)
	GetSpecies() ([]SpeciesData, error)
	GetStorageConfig() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Simulation SimulationData `json:"simulation" yaml:"simulation"`
	Override   OverrideData   `json:"override,omitempty" yaml:"override,omitempty"`
	Weather    WeatherData    `json:"weather" yaml:"weather"`
	Beds       []BedData      `json:"beds" yaml:"beds"`
	Species    []SpeciesData  `json:"species" yaml:"species"`
	Storage    StorageData    `json:"storage,omitempty" yaml:"storage,omitempty"`
	LiveStats  LiveStatsData  `json:"live_stats,omitempty" yaml:"live-stats,omitempty"`
}

// SimulationData holds the clock and model settings. Durations are Go
// duration strings; zero values take the simulation defaults.
type SimulationData struct {
	StartDate              string  `json:"start_date,omitempty" yaml:"start-date,omitempty"`
	TickPeriod             string  `json:"tick_period,omitempty" yaml:"tick-period,omitempty"`
	InitialMode            string  `json:"initial_mode,omitempty" yaml:"initial-mode,omitempty"`
	RunForDays             int     `json:"run_for_days,omitempty" yaml:"run-for-days,omitempty"`
	SampleResolution       string  `json:"sample_resolution,omitempty" yaml:"sample-resolution,omitempty"`
	WaterUseFactor         float64 `json:"water_use_factor,omitempty" yaml:"water-use-factor,omitempty"`
	FallbackET0            float64 `json:"fallback_et0,omitempty" yaml:"fallback-et0,omitempty"`
	RootDepthM             float64 `json:"root_depth_m,omitempty" yaml:"root-depth-m,omitempty"`
	AWCMmPerM              float64 `json:"awc_mm_per_m,omitempty" yaml:"awc-mm-per-m,omitempty"`
	DefaultKc              float64 `json:"default_kc,omitempty" yaml:"default-kc,omitempty"`
	TreatDailyMeanAsHourly bool    `json:"treat_daily_mean_as_hourly,omitempty" yaml:"treat-daily-mean-as-hourly,omitempty"`
	GraceColdHours         float64 `json:"grace_cold_hours,omitempty" yaml:"grace-cold-hours,omitempty"`
	GraceHeatHours         float64 `json:"grace_heat_hours,omitempty" yaml:"grace-heat-hours,omitempty"`
	GraceDryHours          float64 `json:"grace_dry_hours,omitempty" yaml:"grace-dry-hours,omitempty"`
	GraceWetHours          float64 `json:"grace_wet_hours,omitempty" yaml:"grace-wet-hours,omitempty"`
	SunGraceDays           int     `json:"sun_grace_days,omitempty" yaml:"sun-grace-days,omitempty"`
	ModelVersion           string  `json:"model_version,omitempty" yaml:"model-version,omitempty"`
}

// OverrideData is the administrative environment override.
type OverrideData struct {
	Enabled        bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TempC          *float64 `json:"temp_c,omitempty" yaml:"temp-c,omitempty"`
	SoilMoistureMm *float64 `json:"soil_moisture_mm,omitempty" yaml:"soil-moisture-mm,omitempty"`
}

// WeatherData selects and tunes the weather source.
type WeatherData struct {
	Source           string            `json:"source,omitempty" yaml:"source,omitempty"`
	ForecastEndpoint string            `json:"forecast_endpoint,omitempty" yaml:"forecast-endpoint,omitempty"`
	ClimateEndpoint  string            `json:"climate_endpoint,omitempty" yaml:"climate-endpoint,omitempty"`
	ClimateModel     string            `json:"climate_model,omitempty" yaml:"climate-model,omitempty"`
	Timeout          string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	CacheEntries     int               `json:"cache_entries,omitempty" yaml:"cache-entries,omitempty"`
	Static           StaticWeatherData `json:"static,omitempty" yaml:"static,omitempty"`
}

// Weather sources
const (
	WeatherSourceStatic    = "static"
	WeatherSourceOpenMeteo = "open-meteo"
)

// StaticWeatherData is the day every date resolves to with the static source.
type StaticWeatherData struct {
	TMeanC      float64   `json:"t_mean_c" yaml:"t-mean-c"`
	TMinC       float64   `json:"t_min_c" yaml:"t-min-c"`
	TMaxC       float64   `json:"t_max_c" yaml:"t-max-c"`
	PrecipMm    float64   `json:"precip_mm,omitempty" yaml:"precip-mm,omitempty"`
	ET0Mm       *float64  `json:"et0_mm,omitempty" yaml:"et0-mm,omitempty"`
	HourlyTempC []float64 `json:"hourly_temp_c,omitempty" yaml:"hourly-temp-c,omitempty"`
}

// BedData describes one garden bed and everything placed in it.
type BedData struct {
	ID         string          `json:"id" yaml:"id"`
	Latitude   float64         `json:"latitude" yaml:"latitude"`
	Longitude  float64         `json:"longitude" yaml:"longitude"`
	Timezone   string          `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Soil       SoilData        `json:"soil" yaml:"soil"`
	Plants     []PlantData     `json:"plants,omitempty" yaml:"plants,omitempty"`
	Trees      []TreeData      `json:"trees,omitempty" yaml:"trees,omitempty"`
	Structures []StructureData `json:"structures,omitempty" yaml:"structures,omitempty"`
}

type SoilData struct {
	CapacityMm          float64 `json:"capacity_mm" yaml:"capacity-mm"`
	MoistureMm          float64 `json:"moisture_mm" yaml:"moisture-mm"`
	PercolationMmPerDay float64 `json:"percolation_mm_per_day,omitempty" yaml:"percolation-mm-per-day,omitempty"`
}

// PlantData places a plant instance. An empty ID gets a generated one.
type PlantData struct {
	ID        string  `json:"id,omitempty" yaml:"id,omitempty"`
	Species   string  `json:"species" yaml:"species"`
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
	PlantedAt string  `json:"planted_at" yaml:"planted-at"`
}

type TreeData struct {
	ID           string  `json:"id" yaml:"id"`
	X            float64 `json:"x" yaml:"x"`
	Y            float64 `json:"y" yaml:"y"`
	Height       float64 `json:"height" yaml:"height"`
	CanopyRadius float64 `json:"canopy_radius" yaml:"canopy-radius"`
}

type StructureData struct {
	ID     string  `json:"id" yaml:"id"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Height float64 `json:"height" yaml:"height"`
	Width  float64 `json:"width" yaml:"width"`
	Depth  float64 `json:"depth" yaml:"depth"`
}

// SpeciesData is a species reference record. Nil thresholds disable the
// matching check.
type SpeciesData struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name,omitempty" yaml:"name,omitempty"`
	SunReq          float64  `json:"sun_req" yaml:"sun-req"`
	MaxHeight       float64  `json:"max_height" yaml:"max-height"`
	MaxCanopyRadius float64  `json:"max_canopy_radius" yaml:"max-canopy-radius"`
	Maturity        string   `json:"maturity,omitempty" yaml:"maturity,omitempty"`
	BaseGrowthRate  *float64 `json:"base_growth_rate,omitempty" yaml:"base-growth-rate,omitempty"`
	TempMin         *float64 `json:"temp_min,omitempty" yaml:"temp-min,omitempty"`
	TempMax         *float64 `json:"temp_max,omitempty" yaml:"temp-max,omitempty"`
	WaterMin        *float64 `json:"water_min,omitempty" yaml:"water-min,omitempty"`
	WaterMax        *float64 `json:"water_max,omitempty" yaml:"water-max,omitempty"`
	GraceColdHours  *float64 `json:"grace_cold_hours,omitempty" yaml:"grace-cold-hours,omitempty"`
	GraceHeatHours  *float64 `json:"grace_heat_hours,omitempty" yaml:"grace-heat-hours,omitempty"`
	GraceDryHours   *float64 `json:"grace_dry_hours,omitempty" yaml:"grace-dry-hours,omitempty"`
	GraceWetHours   *float64 `json:"grace_wet_hours,omitempty" yaml:"grace-wet-hours,omitempty"`
	SunGraceDays    *int     `json:"sun_grace_days,omitempty" yaml:"sun-grace-days,omitempty"`
	GerminationDays int      `json:"germination_days,omitempty" yaml:"germination-days,omitempty"`
	FloweringDays   *int     `json:"flowering_days,omitempty" yaml:"flowering-days,omitempty"`
	FruitingDays    *int     `json:"fruiting_days,omitempty" yaml:"fruiting-days,omitempty"`
	LifespanDays    *int     `json:"lifespan_days,omitempty" yaml:"lifespan-days,omitempty"`
	Kc              *KcData  `json:"kc,omitempty" yaml:"kc,omitempty"`
	RootDepthM      *float64 `json:"root_depth_m,omitempty" yaml:"root-depth-m,omitempty"`
}

type KcData struct {
	Initial float64 `json:"initial" yaml:"initial"`
	Mid     float64 `json:"mid" yaml:"mid"`
	Late    float64 `json:"late" yaml:"late"`
}

// StorageData holds the configuration for the snapshot storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	CSV         *CSVData         `json:"csv,omitempty" yaml:"csv,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection-string"`
}

type SQLiteData struct {
	Path string `json:"path" yaml:"path"`
}

type CSVData struct {
	Path string `json:"path" yaml:"path"`
}

// LiveStatsData controls the per-tick live stats stream. An empty Path or
// "-" writes to stdout.
type LiveStatsData struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Validate checks the cross-references a provider cannot enforce on its own.
func (c *ConfigData) Validate() error {
	if len(c.Beds) == 0 {
		return ErrNoBeds
	}

	species := make(map[string]bool, len(c.Species))
	for _, sp := range c.Species {
		if sp.ID == "" {
			return errors.New("species with empty id")
		}
		if species[sp.ID] {
			return fmt.Errorf("duplicate species %q", sp.ID)
		}
		species[sp.ID] = true
	}

	beds := make(map[string]bool, len(c.Beds))
	for _, b := range c.Beds {
		if b.ID == "" {
			return errors.New("bed with empty id")
		}
		if beds[b.ID] {
			return fmt.Errorf("duplicate bed %q", b.ID)
		}
		beds[b.ID] = true

		ids := make(map[string]bool)
		seen := func(id string) error {
			if id == "" {
				return nil
			}
			if ids[id] {
				return fmt.Errorf("bed %s: duplicate object id %q", b.ID, id)
			}
			ids[id] = true
			return nil
		}
		for _, p := range b.Plants {
			if err := seen(p.ID); err != nil {
				return err
			}
		}
		for _, t := range b.Trees {
			if err := seen(t.ID); err != nil {
				return err
			}
		}
		for _, s := range b.Structures {
			if err := seen(s.ID); err != nil {
				return err
			}
		}
	}

	switch c.Weather.Source {
	case "", WeatherSourceStatic, WeatherSourceOpenMeteo:
	default:
		return fmt.Errorf("unknown weather source %q", c.Weather.Source)
	}
	if n := len(c.Weather.Static.HourlyTempC); n != 0 && n != 24 {
		return fmt.Errorf("static weather needs 24 hourly temperatures, got %d", n)
	}

	switch c.LiveStats.Format {
	case "", "json", "msgpack":
	default:
		return fmt.Errorf("unknown live stats format %q", c.LiveStats.Format)
	}
	return nil
}
