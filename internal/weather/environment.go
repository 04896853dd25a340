package weather

import (
	"context"
	"fmt"

	"github.com/chrissnell/gardensim/internal/calendar"
)

// Override substitutes debug readings for real weather and soil. When
// Enabled, each non-nil field replaces the matching real input.
type Override struct {
	Enabled        bool
	TempC          *float64
	SoilMoistureMm *float64
}

func (o Override) temp() (float64, bool) {
	if !o.Enabled || o.TempC == nil {
		return 0, false
	}
	return *o.TempC, true
}

func (o Override) soil() (float64, bool) {
	if !o.Enabled || o.SoilMoistureMm == nil {
		return 0, false
	}
	return *o.SoilMoistureMm, true
}

// Covers reports whether o replaces every input a tick needs, so no
// provider fetch is required.
func (o Override) Covers() bool {
	_, t := o.temp()
	_, s := o.soil()
	return t && s
}

// Environment is the effective weather for one bed and one day, after
// overrides are applied. Growth and mortality both read it.
type Environment struct {
	Weather Day
	// HourlyTempC is always populated. It is a flat daily-mean series when
	// the source had no hourly data.
	HourlyTempC [HoursPerDay]float64
	// Measured is false when HourlyTempC was fabricated from the daily mean.
	Measured bool
	// SoilMoistureMm replaces the bed's modeled moisture when non-nil.
	SoilMoistureMm *float64
	// Overridden is set when any override field was applied.
	Overridden bool
}

// TempAt returns the temperature for a local hour. It returns false when
// the series was fabricated and useMean is not set.
func (e Environment) TempAt(hour int, useMean bool) (float64, bool) {
	if hour < 0 || hour >= HoursPerDay {
		return 0, false
	}
	if !e.Measured && !useMean {
		return 0, false
	}
	return e.HourlyTempC[hour], true
}

// Resolve produces the effective environment for day. An override that
// covers every input short-circuits before p is consulted.
func Resolve(ctx context.Context, p Provider, o Override, lat, lon float64, day calendar.Day) (Environment, error) {
	if o.Covers() {
		t, _ := o.temp()
		return Apply(Day{Daily: Daily{Day: day, TMeanC: t, TMinC: t, TMaxC: t}}, o), nil
	}

	if p == nil {
		return Environment{}, fmt.Errorf("no weather provider for %s", day.ISO())
	}
	w, err := p.Fetch(ctx, lat, lon, day)
	if err != nil {
		return Environment{}, fmt.Errorf("fetching weather for %s: %w", day.ISO(), err)
	}
	w.Day = day
	return Apply(w, o), nil
}

// Apply builds an Environment from fetched weather and an override.
func Apply(w Day, o Override) Environment {
	env := Environment{Weather: w}

	switch t, ok := o.temp(); {
	case ok:
		env.HourlyTempC = FlatHourly(t)
		env.Measured = true
		env.Overridden = true
	case w.HasHourly():
		copy(env.HourlyTempC[:], w.HourlyTempC)
		env.Measured = true
	default:
		env.HourlyTempC = FlatHourly(w.TMeanC)
	}

	if m, ok := o.soil(); ok {
		env.SoilMoistureMm = &m
		env.Overridden = true
	}

	return env
}
