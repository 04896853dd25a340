package app

import (
	"fmt"
	"time"

	"github.com/chrissnell/gardensim/internal/clock"
	"github.com/chrissnell/gardensim/internal/garden"
	"github.com/chrissnell/gardensim/internal/mortality"
	"github.com/chrissnell/gardensim/internal/shadow"
	"github.com/chrissnell/gardensim/internal/soil"
	"github.com/chrissnell/gardensim/internal/species"
	"github.com/chrissnell/gardensim/internal/weather"
	"github.com/chrissnell/gardensim/pkg/config"
	"go.uber.org/zap"
)

// Plan is a configuration resolved into simulation objects.
type Plan struct {
	Beds     []*garden.Bed
	Registry *species.MemoryRegistry
	Options  garden.Options
	Provider weather.Provider
	Override weather.Override

	Start  time.Time
	Period time.Duration
	Mode   clock.Mode
	// End is zero when the run is unbounded.
	End time.Time
}

// Build validates cfg and resolves it into a Plan.
func Build(cfg *config.ConfigData, logger *zap.SugaredLogger) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plants, err := BuildSpecies(cfg.Species)
	if err != nil {
		return nil, err
	}
	reg, err := species.NewMemoryRegistry(plants)
	if err != nil {
		return nil, err
	}

	opts, err := BuildOptions(cfg.Simulation)
	if err != nil {
		return nil, err
	}

	loc, err := loadLocation(cfg.Beds[0].Timezone)
	if err != nil {
		return nil, fmt.Errorf("bed %s: %w", cfg.Beds[0].ID, err)
	}
	start := time.Now().In(loc)
	if cfg.Simulation.StartDate != "" {
		if start, err = parseInstant(cfg.Simulation.StartDate, loc); err != nil {
			return nil, fmt.Errorf("start date: %w", err)
		}
	}

	beds, err := BuildBeds(cfg.Beds, reg, start)
	if err != nil {
		return nil, err
	}

	provider, err := BuildProvider(cfg.Weather, logger)
	if err != nil {
		return nil, err
	}

	period, err := parseDuration(cfg.Simulation.TickPeriod, clock.DefaultPeriod)
	if err != nil {
		return nil, fmt.Errorf("tick period: %w", err)
	}
	mode, err := clock.ParseMode(cfg.Simulation.InitialMode)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Beds:     beds,
		Registry: reg,
		Options:  opts,
		Provider: provider,
		Override: BuildOverride(cfg.Override),
		Start:    start,
		Period:   period,
		Mode:     mode,
	}
	if cfg.Simulation.RunForDays > 0 {
		p.End = start.AddDate(0, 0, cfg.Simulation.RunForDays)
	}
	return p, nil
}

// BuildSpecies converts species records.
func BuildSpecies(data []config.SpeciesData) ([]species.BasePlant, error) {
	out := make([]species.BasePlant, 0, len(data))
	for _, d := range data {
		if d.MaxHeight < 0 || d.MaxCanopyRadius < 0 || d.SunReq < 0 {
			return nil, fmt.Errorf("species %s: sizes and sun requirement must not be negative", d.ID)
		}
		p := species.BasePlant{
			ID:              d.ID,
			Name:            d.Name,
			SunReq:          d.SunReq,
			MaxHeight:       d.MaxHeight,
			MaxCanopyRadius: d.MaxCanopyRadius,
			MaturitySpec:    d.Maturity,
			BaseGrowthRate:  d.BaseGrowthRate,
			TempMin:         d.TempMin,
			TempMax:         d.TempMax,
			WaterMin:        d.WaterMin,
			WaterMax:        d.WaterMax,
			Grace: species.GraceHours{
				Cold: d.GraceColdHours,
				Heat: d.GraceHeatHours,
				Dry:  d.GraceDryHours,
				Wet:  d.GraceWetHours,
			},
			SunGraceDays:    d.SunGraceDays,
			GerminationDays: d.GerminationDays,
			FloweringDays:   d.FloweringDays,
			FruitingDays:    d.FruitingDays,
			LifespanDays:    d.LifespanDays,
			RootDepthM:      d.RootDepthM,
		}
		if d.Kc != nil {
			p.Kc = &species.KcProfile{Initial: d.Kc.Initial, Mid: d.Kc.Mid, Late: d.Kc.Late}
		}
		out = append(out, p)
	}
	return out, nil
}

// BuildOptions converts simulation settings. Unset graces keep their
// individual defaults.
func BuildOptions(sim config.SimulationData) (garden.Options, error) {
	res, err := parseDuration(sim.SampleResolution, garden.DefaultSampleResolution)
	if err != nil {
		return garden.Options{}, fmt.Errorf("sample resolution: %w", err)
	}

	grace := mortality.DefaultGrace
	if sim.GraceColdHours > 0 {
		grace.GraceCold = sim.GraceColdHours
	}
	if sim.GraceHeatHours > 0 {
		grace.GraceHeat = sim.GraceHeatHours
	}
	if sim.GraceDryHours > 0 {
		grace.GraceDry = sim.GraceDryHours
	}
	if sim.GraceWetHours > 0 {
		grace.GraceWet = sim.GraceWetHours
	}
	if sim.SunGraceDays > 0 {
		grace.SunGraceDays = sim.SunGraceDays
	}

	return garden.Options{
		SampleResolution:       res,
		WaterUseFactor:         sim.WaterUseFactor,
		FallbackET0:            sim.FallbackET0,
		RootDepthM:             sim.RootDepthM,
		AWCMmPerM:              sim.AWCMmPerM,
		DefaultKc:              sim.DefaultKc,
		TreatDailyMeanAsHourly: sim.TreatDailyMeanAsHourly,
		Grace:                  grace,
		ModelVersion:           sim.ModelVersion,
	}, nil
}

// BuildBeds creates beds with their plants, trees and structures. Plants
// without a planting date are planted at start.
func BuildBeds(data []config.BedData, reg species.Registry, start time.Time) ([]*garden.Bed, error) {
	beds := make([]*garden.Bed, 0, len(data))
	for _, d := range data {
		loc, err := loadLocation(d.Timezone)
		if err != nil {
			return nil, fmt.Errorf("bed %s: %w", d.ID, err)
		}
		if d.Latitude < -90 || d.Latitude > 90 || d.Longitude < -180 || d.Longitude > 180 {
			return nil, fmt.Errorf("bed %s: coordinates %.4f,%.4f out of range", d.ID, d.Latitude, d.Longitude)
		}

		b := garden.NewBed(d.ID, d.Latitude, d.Longitude, loc,
			soil.NewState(d.Soil.CapacityMm, d.Soil.MoistureMm, d.Soil.PercolationMmPerDay))

		for _, pd := range d.Plants {
			sp, err := reg.Lookup(pd.Species)
			if err != nil {
				return nil, fmt.Errorf("bed %s: %w", d.ID, err)
			}
			plantedAt := start
			if pd.PlantedAt != "" {
				if plantedAt, err = parseInstant(pd.PlantedAt, loc); err != nil {
					return nil, fmt.Errorf("bed %s plant %s: planted-at: %w", d.ID, pd.ID, err)
				}
			}
			b.Plants = append(b.Plants, garden.NewPlant(pd.ID, sp, pd.X, pd.Y, plantedAt))
		}
		for _, t := range d.Trees {
			b.Objects = append(b.Objects, shadow.NewTree(t.ID, t.X, t.Y, t.Height, t.CanopyRadius))
		}
		for _, s := range d.Structures {
			b.Objects = append(b.Objects, shadow.NewStructure(s.ID, s.X, s.Y, s.Height, s.Width, s.Depth))
		}

		beds = append(beds, b)
	}
	return beds, nil
}

// BuildProvider returns the configured weather source. Network sources are
// put behind a tile cache.
func BuildProvider(w config.WeatherData, logger *zap.SugaredLogger) (weather.Provider, error) {
	switch w.Source {
	case "", config.WeatherSourceStatic:
		s := w.Static
		day := weather.Day{
			Daily: weather.Daily{
				TMeanC:   s.TMeanC,
				TMinC:    s.TMinC,
				TMaxC:    s.TMaxC,
				PrecipMm: s.PrecipMm,
				ET0Mm:    s.ET0Mm,
			},
			HourlyTempC: s.HourlyTempC,
		}
		return &weather.Static{Default: day}, nil

	case config.WeatherSourceOpenMeteo:
		timeout, err := parseDuration(w.Timeout, 0)
		if err != nil {
			return nil, fmt.Errorf("weather timeout: %w", err)
		}
		om := weather.NewOpenMeteo(timeout, logger)
		if w.ForecastEndpoint != "" {
			om.ForecastEndpoint = w.ForecastEndpoint
		}
		if w.ClimateEndpoint != "" {
			om.ClimateEndpoint = w.ClimateEndpoint
		}
		if w.ClimateModel != "" {
			om.ClimateModel = w.ClimateModel
		}
		return weather.NewCache(om, w.CacheEntries), nil
	}
	return nil, fmt.Errorf("unknown weather source %q", w.Source)
}

func BuildOverride(o config.OverrideData) weather.Override {
	return weather.Override{
		Enabled:        o.Enabled,
		TempC:          o.TempC,
		SoilMoistureMm: o.SoilMoistureMm,
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// parseInstant accepts a civil date, taken as midnight in loc, or an
// RFC 3339 timestamp.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC 3339", s)
	}
	return t, nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%q must be positive", s)
	}
	return d, nil
}
