// Package growth turns a day's sunlight, temperature and water adequacy into
// height and canopy increments for a plant.
package growth

import (
	"math"
	"regexp"
	"strconv"

	"github.com/chrissnell/gardensim/internal/calendar"
	"github.com/chrissnell/gardensim/internal/species"
)

var integerPattern = regexp.MustCompile(`\d+`)

// ParseMaturityDays extracts the smallest positive integer in a free-text
// maturity spec, so "60–70" yields 60. It reports false when there is none.
func ParseMaturityDays(spec string) (int, bool) {
	best := 0
	for _, m := range integerPattern.FindAllString(spec, -1) {
		n, err := strconv.Atoi(m)
		if err != nil || n <= 0 {
			continue
		}
		if best == 0 || n < best {
			best = n
		}
	}
	return best, best > 0
}

// BaseGrowthRate derives height growth per day as maxHeight divided by the
// parsed days to maturity. It reports false when no rate can be derived.
func BaseGrowthRate(maxHeight float64, maturitySpec string) (float64, bool) {
	if !(maxHeight > 0) || math.IsInf(maxHeight, 0) {
		return 0, false
	}
	days, ok := ParseMaturityDays(maturitySpec)
	if !ok {
		return 0, false
	}
	return maxHeight / float64(days), true
}

// Limits are the species values that bound growth.
type Limits struct {
	BaseGrowthRate  float64
	MaxHeight       float64
	MaxCanopyRadius float64
}

// LimitsFor returns the growth limits of a species. An explicit base rate
// wins over the derived one; with neither the rate is 0.
func LimitsFor(p species.BasePlant) Limits {
	rate, _ := BaseGrowthRate(p.MaxHeight, p.MaturitySpec)
	if p.BaseGrowthRate != nil && *p.BaseGrowthRate >= 0 && !math.IsInf(*p.BaseGrowthRate, 0) {
		rate = *p.BaseGrowthRate
	}
	return Limits{
		BaseGrowthRate:  rate,
		MaxHeight:       p.MaxHeight,
		MaxCanopyRadius: p.MaxCanopyRadius,
	}
}

// CanopyRate scales the height rate by the canopy/height ratio of the
// species.
func (l Limits) CanopyRate() float64 {
	if !(l.MaxHeight > 0) || !(l.MaxCanopyRadius > 0) {
		return 0
	}
	return l.BaseGrowthRate * (l.MaxCanopyRadius / l.MaxHeight)
}

// Inputs are one day's environmental signals for one plant.
type Inputs struct {
	SunHours    float64
	SunReq      float64
	TempOkHours float64
	WaterEff    float64
}

// Efficiencies are the 0..1 growth multipliers for a day.
type Efficiencies struct {
	Sun   float64
	Temp  float64
	Water float64
}

// Product returns the combined growth multiplier.
func (e Efficiencies) Product() float64 {
	return e.Sun * e.Temp * e.Water
}

// ComputeEfficiencies converts inputs into efficiencies. A species without a
// sun requirement grows at full sun efficiency.
func ComputeEfficiencies(in Inputs) Efficiencies {
	sun := 1.0
	if in.SunReq > 0 {
		sun = unit(in.SunHours / in.SunReq)
	}
	return Efficiencies{
		Sun:   sun,
		Temp:  unit(in.TempOkHours / 24),
		Water: unit(in.WaterEff),
	}
}

// State is a plant's size. Height and CanopyRadius never decrease.
type State struct {
	Height       float64
	CanopyRadius float64

	lastDay calendar.Day
	hasDay  bool
}

// Increment is the growth applied for one day.
type Increment struct {
	Day          calendar.Day
	Height       float64
	CanopyRadius float64
	Efficiencies Efficiencies
}

// Apply grows the plant for day. Days at or before the last grown day are
// skipped, and a dead plant never grows. It reports whether growth was
// applied.
func (s *State) Apply(day calendar.Day, lim Limits, eff Efficiencies, dead bool) (Increment, bool) {
	if dead || s.AppliedOn(day) {
		return Increment{}, false
	}

	mult := eff.Product()
	if math.IsNaN(mult) || mult < 0 {
		mult = 0
	}
	rate := lim.BaseGrowthRate
	if math.IsNaN(rate) || rate < 0 {
		rate = 0
	}

	height := grow(s.Height, rate*mult, lim.MaxHeight)
	canopy := grow(s.CanopyRadius, lim.CanopyRate()*mult, lim.MaxCanopyRadius)

	inc := Increment{
		Day:          day,
		Height:       height - s.Height,
		CanopyRadius: canopy - s.CanopyRadius,
		Efficiencies: eff,
	}

	s.Height, s.CanopyRadius = height, canopy
	s.lastDay, s.hasDay = day, true
	return inc, true
}

// AppliedOn reports whether growth for day is already accounted for.
func (s *State) AppliedOn(day calendar.Day) bool {
	return s.hasDay && day <= s.lastDay
}

// LastDay returns the last day growth was applied for.
func (s *State) LastDay() (calendar.Day, bool) {
	return s.lastDay, s.hasDay
}

// grow adds delta and caps at max without ever shrinking current. Without a
// positive max there is nothing to grow towards.
func grow(current, delta, max float64) float64 {
	if !(max > 0) {
		return current
	}
	return math.Max(current, math.Min(current+delta, max))
}

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}
