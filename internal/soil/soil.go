// Package soil models per-bed soil moisture: a daily water balance, explicit
// irrigation and the comfort band of acceptable moisture for a crop.
package soil

import (
	"fmt"
	"math"

	"github.com/chrissnell/gardensim/internal/calendar"
)

// State is the soil moisture of one bed. MoistureMm always stays within
// [0, CapacityMm].
type State struct {
	CapacityMm          float64
	MoistureMm          float64
	PercolationMmPerDay float64

	lastApplied calendar.Day
	hasApplied  bool
}

// DayInput is the weather that drives one daily update.
type DayInput struct {
	Day            calendar.Day
	PrecipMm       float64
	ET0Mm          *float64
	WaterUseFactor float64
}

// NewState returns a soil state with moisture clamped into range.
func NewState(capacityMm, moistureMm, percolationMmPerDay float64) *State {
	if !finite(capacityMm) || capacityMm < 0 {
		capacityMm = 0
	}
	if !finite(percolationMmPerDay) || percolationMmPerDay < 0 {
		percolationMmPerDay = 0
	}
	s := &State{
		CapacityMm:          capacityMm,
		PercolationMmPerDay: percolationMmPerDay,
	}
	s.MoistureMm = s.clamp(moistureMm)
	return s
}

// ApplyDay runs the water balance for in.Day. Days at or before the last
// applied day are ignored, so replaying or rewinding time never applies a
// day twice. It reports whether moisture was updated.
func (s *State) ApplyDay(in DayInput) bool {
	if s.hasApplied && in.Day <= s.lastApplied {
		return false
	}

	precip := in.PrecipMm
	if !finite(precip) || precip < 0 {
		precip = 0
	}
	et0 := 0.0
	if in.ET0Mm != nil && finite(*in.ET0Mm) {
		et0 = *in.ET0Mm
	}
	factor := in.WaterUseFactor
	if !finite(factor) {
		factor = 1
	}

	demand := et0 * factor
	next := s.clamp(s.MoistureMm + precip - demand - s.PercolationMmPerDay)

	// Commit only after the whole update has been computed.
	s.MoistureMm = next
	s.lastApplied = in.Day
	s.hasApplied = true
	s.assertInvariant()
	return true
}

// Irrigate adds mm of water, clamped to capacity. Non-positive amounts are
// ignored.
func (s *State) Irrigate(mm float64) {
	if !finite(mm) || mm <= 0 {
		return
	}
	s.MoistureMm = s.clamp(s.MoistureMm + mm)
	s.assertInvariant()
}

// LastAppliedDay returns the day of the most recent ApplyDay, if any.
func (s *State) LastAppliedDay() (calendar.Day, bool) {
	return s.lastApplied, s.hasApplied
}

// RestoreLastApplied marks day as already applied, for state loaded from
// persistence.
func (s *State) RestoreLastApplied(day calendar.Day) {
	s.lastApplied = day
	s.hasApplied = true
}

func (s *State) clamp(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), s.CapacityMm)
}

// assertInvariant panics when moisture has left [0, capacity]. That can
// only happen through a bug, never through input.
func (s *State) assertInvariant() {
	if s.MoistureMm < 0 || s.MoistureMm > s.CapacityMm || math.IsNaN(s.MoistureMm) {
		panic(fmt.Sprintf("soil: moisture %.3f mm outside [0, %.3f]", s.MoistureMm, s.CapacityMm))
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
