package mortality

import (
	"github.com/chrissnell/gardensim/internal/soil"
	"github.com/chrissnell/gardensim/internal/species"
)

// Defaults fill grace periods a species leaves unset.
type Defaults struct {
	GraceCold    float64
	GraceHeat    float64
	GraceDry     float64
	GraceWet     float64
	SunGraceDays int
}

// DefaultGrace is used when configuration does not name grace periods.
var DefaultGrace = Defaults{
	GraceCold:    12,
	GraceHeat:    12,
	GraceDry:     72,
	GraceWet:     72,
	SunGraceDays: 7,
}

// ThresholdsFor resolves the limits a plant of species p is checked against.
// The dry limit is the species WaterMin override or the comfort band
// minimum. The wet limit is the species WaterMax override or
// soil.WetCapacityFraction of capacityMm.
func ThresholdsFor(p species.BasePlant, band soil.Band, capacityMm float64, d Defaults) Thresholds {
	th := Thresholds{
		TempMin:      p.TempMin,
		TempMax:      p.TempMax,
		GraceCold:    graceOr(p.Grace.Cold, d.GraceCold),
		GraceHeat:    graceOr(p.Grace.Heat, d.GraceHeat),
		GraceDry:     graceOr(p.Grace.Dry, d.GraceDry),
		GraceWet:     graceOr(p.Grace.Wet, d.GraceWet),
		SunGraceDays: d.SunGraceDays,
		LifespanDays: p.LifespanDays,
	}

	if p.SunGraceDays != nil {
		th.SunGraceDays = *p.SunGraceDays
	}
	if p.SunReq > 0 {
		req := p.SunReq
		th.SunReq = &req
	}

	if p.WaterMin != nil {
		th.WaterMin = p.WaterMin
	} else {
		min := band.MinMm
		th.WaterMin = &min
	}

	if p.WaterMax != nil {
		th.WaterMax = p.WaterMax
	} else if capacityMm > 0 {
		max := soil.WetCapacityFraction * capacityMm
		th.WaterMax = &max
	}

	return th
}

func graceOr(v *float64, fallback float64) float64 {
	if v == nil || *v < 0 {
		return fallback
	}
	return *v
}
