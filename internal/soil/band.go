package soil

import (
	"math"

	"github.com/chrissnell/gardensim/internal/species"
)

// Fallbacks used when an input to the comfort band is missing or invalid.
const (
	DefaultFallbackET0 = 4.0   // mm/day
	DefaultRootDepthM  = 0.3   // m
	DefaultAWCMmPerM   = 150.0 // mm of available water per m of soil
	DefaultKc          = 1.0

	// WetCapacityFraction is the share of capacity above which soil counts
	// as waterlogged when no upper moisture limit is known.
	WetCapacityFraction = 0.98
)

// Band is the range of soil moisture in which water is not limiting.
type Band struct {
	MinMm float64
	MaxMm float64
}

// BandInput holds everything the comfort band depends on. Zero or invalid
// RootDepthM, AWCMmPerM and FallbackET0 use the package defaults.
type BandInput struct {
	Kc          float64
	ET0Mm       *float64
	CapacityMm  float64
	RootDepthM  float64
	AWCMmPerM   float64
	FallbackET0 float64
}

// ComfortBand sizes the comfort band from readily available water (FAO-56).
// MinMm <= MaxMm for every input.
func ComfortBand(in BandInput) Band {
	fallback := positiveOr(in.FallbackET0, DefaultFallbackET0)
	et0 := fallback
	if in.ET0Mm != nil && finite(*in.ET0Mm) {
		et0 = *in.ET0Mm
	}
	kc := in.Kc
	if !finite(kc) {
		kc = DefaultKc
	}

	etc := math.Max(0, kc*et0)
	p := clampRange(0.5+0.04*(5-etc), 0.3, 0.8)

	capacity := in.CapacityMm
	if !finite(capacity) || capacity < 0 {
		capacity = 0
	}
	taw := clampRange(positiveOr(in.AWCMmPerM, DefaultAWCMmPerM)*positiveOr(in.RootDepthM, DefaultRootDepthM), 0, capacity)
	raw := p * taw

	maxMm := math.Max(0, 0.9*taw)
	minMm := clampRange(maxMm-raw, 0, maxMm)

	return Band{MinMm: minMm, MaxMm: maxMm}
}

// WithOverrides applies explicit species limits over the dynamic band. If
// the overrides cross, the band collapses to the upper limit so that
// MinMm <= MaxMm still holds.
func (b Band) WithOverrides(minMm, maxMm *float64) Band {
	if minMm != nil && finite(*minMm) {
		b.MinMm = *minMm
	}
	if maxMm != nil && finite(*maxMm) {
		b.MaxMm = *maxMm
	}
	if b.MinMm > b.MaxMm {
		b.MinMm = b.MaxMm
	}
	return b
}

// WaterEfficiency is 0 at or below the band minimum, 1 at or above the band
// maximum and linear in between. A collapsed band yields 1 once moisture
// reaches it.
func WaterEfficiency(moistureMm float64, b Band) float64 {
	if !finite(moistureMm) {
		return 0
	}
	width := b.MaxMm - b.MinMm
	if width <= 0 {
		if moistureMm >= b.MaxMm {
			return 1
		}
		return 0
	}
	return clampRange((moistureMm-b.MinMm)/width, 0, 1)
}

// CropCoefficient picks Kc for a plant ageDays old: the initial value for the
// first 20% of maturityDays, the late value after 80%, mid otherwise. A nil
// profile returns defaultKc; an unknown maturity uses the mid value.
func CropCoefficient(profile *species.KcProfile, ageDays, maturityDays int, defaultKc float64) float64 {
	if profile == nil {
		if !finite(defaultKc) || defaultKc <= 0 {
			return DefaultKc
		}
		return defaultKc
	}
	if maturityDays <= 0 {
		return profile.Mid
	}

	frac := float64(ageDays) / float64(maturityDays)
	switch {
	case frac < 0.2:
		return profile.Initial
	case frac > 0.8:
		return profile.Late
	}
	return profile.Mid
}

func positiveOr(v, fallback float64) float64 {
	if !finite(v) || v <= 0 {
		return fallback
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
