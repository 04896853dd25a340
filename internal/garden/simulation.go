package garden

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/gardensim/internal/calendar"
	"github.com/chrissnell/gardensim/internal/growth"
	"github.com/chrissnell/gardensim/internal/mortality"
	"github.com/chrissnell/gardensim/internal/soil"
	"github.com/chrissnell/gardensim/internal/species"
	"github.com/chrissnell/gardensim/internal/types"
	"github.com/chrissnell/gardensim/internal/weather"
	"go.uber.org/zap"
)

var (
	ErrNoBeds      = errors.New("simulation has no beds")
	ErrUnknownBed  = errors.New("unknown bed")
	ErrUnknownItem = errors.New("unknown plant or object")
	ErrDuplicateID = errors.New("duplicate id")
)

// Config wires a Simulation to its collaborators.
type Config struct {
	Beds     []*Bed
	Provider weather.Provider
	Registry species.Registry
	// Snapshots receives one record per plant per closed day. It may be nil.
	Snapshots chan<- types.Snapshot
	Override  weather.Override
	Options   Options
	Logger    *zap.SugaredLogger
}

// Simulation advances every bed to the instants it is given. Tick and the
// event methods are serialized; only weather fetches run outside the lock.
type Simulation struct {
	opts     Options
	beds     []*Bed
	byID     map[string]*Bed
	fetcher  *weather.Fetcher
	registry species.Registry
	out      chan<- types.Snapshot
	logger   *zap.SugaredLogger

	mu          sync.Mutex
	override    weather.Override
	overrideGen uint64
	now         time.Time
	seq         uint64
	applied     uint64
	closed      map[string]calendar.Day
}

func New(cfg Config) (*Simulation, error) {
	if len(cfg.Beds) == 0 {
		return nil, ErrNoBeds
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Simulation{
		opts:     cfg.Options.withDefaults(),
		byID:     make(map[string]*Bed, len(cfg.Beds)),
		registry: cfg.Registry,
		out:      cfg.Snapshots,
		logger:   logger,
		override: cfg.Override,
		closed:   make(map[string]calendar.Day),
	}
	if cfg.Provider != nil {
		s.fetcher = weather.NewFetcher(cfg.Provider, logger)
	}

	for _, b := range cfg.Beds {
		if _, ok := s.byID[b.ID]; ok {
			return nil, fmt.Errorf("bed %q: %w", b.ID, ErrDuplicateID)
		}
		if b.Soil == nil {
			b.Soil = soil.NewState(0, 0, 0)
		}
		if b.envs == nil {
			b.envs = make(map[calendar.Day]weather.Environment)
		}
		s.byID[b.ID] = b
		s.beds = append(s.beds, b)
	}
	return s, nil
}

// Options returns the effective options after defaults.
func (s *Simulation) Options() Options {
	return s.opts
}

// Beds returns the simulated beds.
func (s *Simulation) Beds() []*Bed {
	return s.beds
}

// Now returns the instant of the last applied tick.
func (s *Simulation) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Close aborts in-flight weather fetches.
func (s *Simulation) Close() {
	if s.fetcher != nil {
		s.fetcher.Close()
	}
}

type fetchResult struct {
	bed *Bed
	day calendar.Day
	env weather.Environment
	err error
}

// Tick advances every bed to now and returns the live state. Fetch failures
// leave the affected bed's soil and stress counters where they were and are
// returned joined. A tick overtaken by a newer one returns
// weather.ErrSuperseded without applying anything.
func (s *Simulation) Tick(ctx context.Context, now time.Time) (types.LiveStats, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	override, gen := s.override, s.overrideGen
	var pending []*Bed
	for _, b := range s.beds {
		if _, ok := b.envs[calendar.DayOf(now, b.Location)]; !ok {
			pending = append(pending, b)
		}
	}
	s.mu.Unlock()

	results := s.resolve(ctx, pending, override, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.applied {
		return types.LiveStats{}, weather.ErrSuperseded
	}
	s.applied = seq

	var errs []error
	for _, r := range results {
		switch {
		case r.err != nil:
			r.bed.envErr = r.err
			if !errors.Is(r.err, weather.ErrSuperseded) {
				s.logger.Warnw("weather unavailable", "bed", r.bed.ID, "day", r.day.ISO(), "error", r.err)
				errs = append(errs, fmt.Errorf("bed %s: %w", r.bed.ID, r.err))
			}
		case gen == s.overrideGen:
			r.bed.envErr = nil
			r.bed.storeEnv(r.day, r.env)
		}
	}

	s.now = now
	for _, b := range s.beds {
		s.advanceBed(ctx, b, now)
	}

	return s.liveStatsLocked(now), errors.Join(errs...)
}

func (s *Simulation) resolve(ctx context.Context, beds []*Bed, o weather.Override, now time.Time) []fetchResult {
	results := make([]fetchResult, len(beds))
	var wg sync.WaitGroup
	for i, b := range beds {
		day := calendar.DayOf(now, b.Location)
		results[i] = fetchResult{bed: b, day: day}

		var p weather.Provider
		if s.fetcher != nil {
			p = s.fetcher.Provider(b.ID)
		}

		wg.Add(1)
		go func(r *fetchResult, p weather.Provider, lat, lon float64) {
			defer wg.Done()
			r.env, r.err = weather.Resolve(ctx, p, o, lat, lon, r.day)
		}(&results[i], p, b.Lat, b.Lon)
	}
	wg.Wait()
	return results
}

// advanceBed applies one tick to a bed. On entering a new day the soil is
// updated first, then the day just left is closed, then mortality runs
// against the fresh moisture.
func (s *Simulation) advanceBed(ctx context.Context, b *Bed, now time.Time) {
	day := calendar.DayOf(now, b.Location)

	env, ok := b.envs[day]
	if !ok {
		s.evaluateMortality(b, now, day, nil, nil)
		return
	}

	if env.SoilMoistureMm == nil {
		b.Soil.ApplyDay(soil.DayInput{
			Day:            day,
			PrecipMm:       env.Weather.PrecipMm,
			ET0Mm:          env.Weather.ET0Mm,
			WaterUseFactor: s.opts.WaterUseFactor,
		})
	}

	var exposure map[string]Exposure
	if b.hasDay && day != b.day {
		prev := b.day
		s.logger.Debugw("day crossing", "bed", b.ID, "from", prev.ISO(), "to", day.ISO(), "moisture_mm", b.Soil.MoistureMm)
		if day > prev {
			// Only the first entry into a day reports the sun of the day
			// before it.
			exp, closed := s.closeDay(ctx, b, prev, &env)
			switch {
			case closed:
				exposure = exp
			case day > b.reached:
				exposure = b.Exposure(prev, s.opts.SampleResolution)
			}
		}
	}
	b.day, b.hasDay = day, true
	if day > b.reached {
		b.reached = day
	}

	s.evaluateMortality(b, now, day, &env, exposure)
}

// closeDay grows every plant for day and emits its snapshot. A bed's day
// closes at most once; current carries the moisture override, if any. It
// returns the day's exposure, or false when the day was already closed.
func (s *Simulation) closeDay(ctx context.Context, b *Bed, day calendar.Day, current *weather.Environment) (map[string]Exposure, bool) {
	if last, ok := s.closed[b.ID]; ok && day <= last {
		return nil, false
	}
	s.closed[b.ID] = day

	exposure := b.Exposure(day, s.opts.SampleResolution)

	dayEnv, haveEnv := b.envs[day]
	end := (day + 1).Start(b.Location)
	moisture := b.moisture(current)

	for _, p := range b.Plants {
		if p.PlantedAt.After(end) {
			continue
		}
		exp := exposure[p.ID]
		snap := types.Snapshot{
			BedID:         b.ID,
			PlantID:       p.ID,
			SpeciesID:     p.Species.ID,
			Date:          dateOf(day),
			SunlightHours: exp.SunHours,
			ShadedHours:   exp.ShadedHours,
			ModelVersion:  s.opts.ModelVersion,
		}
		snap.Inputs.SoilMoistureMm = moisture

		if haveEnv {
			age := p.AgeDays(end)
			band, kc := p.comfortBand(age, dayEnv.Weather.ET0Mm, b.Soil.CapacityMm, s.opts)
			band = band.WithOverrides(p.Species.WaterMin, p.Species.WaterMax)

			tempOk := tempOkHours(dayEnv.HourlyTempC[:], p.Species)
			eff := growth.ComputeEfficiencies(growth.Inputs{
				SunHours:    exp.SunHours,
				SunReq:      p.Species.SunReq,
				TempOkHours: tempOk,
				WaterEff:    soil.WaterEfficiency(moisture, band),
			})
			_, grew := p.Growth.Apply(day, growth.LimitsFor(p.Species), eff, p.Mortality.Dead)

			snap.TempOkHours = tempOk
			snap.Inputs.TMeanC = dayEnv.Weather.TMeanC
			snap.Inputs.TMinC = dayEnv.Weather.TMinC
			snap.Inputs.TMaxC = dayEnv.Weather.TMaxC
			snap.Inputs.PrecipMm = dayEnv.Weather.PrecipMm
			snap.Inputs.ET0Mm = dayEnv.Weather.ET0Mm
			snap.Inputs.HourlyMeasured = dayEnv.Measured
			snap.Inputs.Overridden = dayEnv.Overridden || current.Overridden
			snap.Inputs.WaterMinMm = band.MinMm
			snap.Inputs.WaterMaxMm = band.MaxMm
			snap.Inputs.Kc = kc
			snap.Inputs.SunEff = eff.Sun
			snap.Inputs.TempEff = eff.Temp
			snap.Inputs.WaterEff = eff.Water
			snap.Inputs.GrowthApplied = grew
		}

		snap.Height = p.Growth.Height
		snap.CanopyRadius = p.Growth.CanopyRadius
		snap.Phase = p.Phase(end).String()
		snap.Dead = p.Mortality.Dead
		if p.Mortality.Dead {
			snap.DeathReason = p.Mortality.Reason.String()
		}

		s.emit(ctx, snap)
	}
	return exposure, true
}

func (s *Simulation) evaluateMortality(b *Bed, now time.Time, day calendar.Day, env *weather.Environment, exposure map[string]Exposure) {
	capacity := b.Soil.CapacityMm

	for _, p := range b.Plants {
		if !p.Planted(now) {
			continue
		}
		before := p.Mortality
		age := p.AgeDays(now)

		var et0 *float64
		if env != nil {
			et0 = env.Weather.ET0Mm
		}
		band, _ := p.comfortBand(age, et0, capacity, s.opts)
		th := mortality.ThresholdsFor(p.Species, band, capacity, s.opts.Grace)

		if env == nil {
			p.Mortality = mortality.CheckLifespan(before, th, now, age)
		} else {
			moisture := b.moisture(env)
			in := mortality.Tick{
				Now:            now,
				Hour:           calendar.HourOf(now, b.Location),
				Day:            day,
				AgeDays:        age,
				SoilMoistureMm: &moisture,
			}
			if t, ok := env.TempAt(calendar.LocalHour(now, b.Location), s.opts.TreatDailyMeanAsHourly); ok {
				in.TempC = &t
			}
			if e, ok := exposure[p.ID]; ok {
				sun := e.SunHours
				in.PrevDaySunHours = &sun
			}
			p.Mortality = mortality.Evaluate(before, th, in)
		}

		mortality.AssertTransition(before, p.Mortality)
		if !before.Dead && p.Mortality.Dead {
			s.logger.Infow("plant died",
				"bed", b.ID,
				"plant", p.ID,
				"species", p.Species.ID,
				"reason", p.Mortality.Reason.String(),
				"details", p.Mortality.Details,
				"at", now)
		}
	}
}

func (s *Simulation) emit(ctx context.Context, snap types.Snapshot) {
	if s.out == nil {
		return
	}
	select {
	case s.out <- snap:
	case <-ctx.Done():
	}
}

// dateOf returns the civil date of day at UTC midnight.
func dateOf(day calendar.Day) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
