// Package weather supplies daily weather for a location and date, and
// resolves it into the environment a simulation tick consumes.
package weather

import (
	"context"
	"fmt"

	"github.com/chrissnell/gardensim/internal/calendar"
)

// HoursPerDay is the length of an hourly temperature series.
const HoursPerDay = 24

// Daily is one day's weather summary.
type Daily struct {
	Day      calendar.Day
	TMeanC   float64
	TMinC    float64
	TMaxC    float64
	PrecipMm float64
	// ET0Mm is reference evapotranspiration, nil when the source has none.
	ET0Mm *float64
}

// Day is a daily summary plus an optional hourly temperature series.
type Day struct {
	Daily
	// HourlyTempC holds local hours 0..23, or is nil when unavailable.
	HourlyTempC []float64
}

// Provider fetches weather for a location and date.
type Provider interface {
	Fetch(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error)

func (f ProviderFunc) Fetch(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error) {
	return f(ctx, lat, lon, day)
}

// FlatHourly returns a 24-hour series with every hour at meanC. It stands in
// for a missing hourly series.
func FlatHourly(meanC float64) [HoursPerDay]float64 {
	var out [HoursPerDay]float64
	for i := range out {
		out[i] = meanC
	}
	return out
}

// HasHourly reports whether d carries a complete hourly series.
func (d Day) HasHourly() bool {
	return len(d.HourlyTempC) == HoursPerDay
}

func (d Day) String() string {
	return fmt.Sprintf("%s mean=%.1f°C min=%.1f°C max=%.1f°C precip=%.1fmm",
		d.Day.ISO(), d.TMeanC, d.TMinC, d.TMaxC, d.PrecipMm)
}
