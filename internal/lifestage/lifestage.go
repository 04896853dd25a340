// Package lifestage derives a plant's display phase from its age.
package lifestage

import (
	"math"
	"time"
)

// Phase is a plant's life stage.
type Phase int

const (
	Seed Phase = iota
	Vegetative
	Flowering
	Fruiting
	Dead
)

func (p Phase) String() string {
	switch p {
	case Seed:
		return "seed"
	case Vegetative:
		return "vegetative"
	case Flowering:
		return "flowering"
	case Fruiting:
		return "fruiting"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// Timing holds the species' phase boundaries in days since planting. Nil
// boundaries skip their window.
type Timing struct {
	GerminationDays int
	FloweringDays   *int
	FruitingDays    *int
	LifespanDays    *int
}

// AgeDays returns whole days elapsed from plantedAt to now, never negative.
func AgeDays(plantedAt, now time.Time) int {
	if !now.After(plantedAt) {
		return 0
	}
	return int(math.Floor(now.Sub(plantedAt).Hours() / 24))
}

// Expired reports whether a plant of ageDays has outlived lifespanDays. This
// is the only lifespan comparison in the simulation: the Dead phase and the
// OldAge mortality cause both use it.
func Expired(ageDays int, lifespanDays *int) bool {
	return lifespanDays != nil && ageDays > *lifespanDays
}

// PhaseAt returns the phase of a plant planted at plantedAt, observed at now.
func PhaseAt(plantedAt, now time.Time, timing Timing) Phase {
	return PhaseForAge(AgeDays(plantedAt, now), timing)
}

// PhaseForAge returns the phase for a plant ageDays old. A window with no
// later window defined runs until the plant expires, so a species without
// FruitingDays flowers for the rest of its life.
func PhaseForAge(ageDays int, timing Timing) Phase {
	switch {
	case ageDays < timing.GerminationDays:
		return Seed
	case Expired(ageDays, timing.LifespanDays):
		return Dead
	case timing.FruitingDays != nil && ageDays >= *timing.FruitingDays:
		return Fruiting
	case timing.FloweringDays != nil && ageDays >= *timing.FloweringDays:
		return Flowering
	}
	return Vegetative
}
