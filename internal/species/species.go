// Package species holds the static reference data for plant species and a
// read-only registry to look them up by id.
package species

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownSpecies is returned when a species id is not in the registry.
var ErrUnknownSpecies = errors.New("unknown species")

// GraceHours is how many consecutive violating hours each stressor
// tolerates before it kills a plant. A nil field uses the simulation default.
type GraceHours struct {
	Cold *float64
	Heat *float64
	Dry  *float64
	Wet  *float64
}

// KcProfile is a species' crop coefficient by growth stage.
type KcProfile struct {
	Initial float64
	Mid     float64
	Late    float64
}

// BasePlant is the immutable description of a species. Optional thresholds
// are pointers; a nil threshold disables the check that needs it.
type BasePlant struct {
	ID   string
	Name string

	SunReq          float64 // hours/day of direct sun for full growth
	MaxHeight       float64
	MaxCanopyRadius float64
	// MaturitySpec is free text such as "60-70" days to maturity.
	MaturitySpec string
	// BaseGrowthRate overrides the rate derived from MaxHeight/MaturitySpec.
	BaseGrowthRate *float64

	TempMin  *float64
	TempMax  *float64
	WaterMin *float64
	WaterMax *float64

	Grace        GraceHours
	SunGraceDays *int

	GerminationDays int
	FloweringDays   *int
	FruitingDays    *int
	LifespanDays    *int

	Kc         *KcProfile
	RootDepthM *float64
}

// Registry looks species up by id.
type Registry interface {
	Lookup(id string) (BasePlant, error)
}

// MemoryRegistry is a Registry backed by a map. It is safe for concurrent
// readers; Replace swaps the whole set atomically.
type MemoryRegistry struct {
	mu      sync.RWMutex
	species map[string]BasePlant
}

// NewMemoryRegistry returns a registry holding plants, keyed by their ID.
func NewMemoryRegistry(plants []BasePlant) (*MemoryRegistry, error) {
	r := &MemoryRegistry{}
	if err := r.Replace(plants); err != nil {
		return nil, err
	}
	return r, nil
}

// Replace swaps the registry contents.
func (r *MemoryRegistry) Replace(plants []BasePlant) error {
	m := make(map[string]BasePlant, len(plants))
	for _, p := range plants {
		id := normalize(p.ID)
		if id == "" {
			return fmt.Errorf("species %q has no id", p.Name)
		}
		if _, dup := m[id]; dup {
			return fmt.Errorf("duplicate species id %q", p.ID)
		}
		m[id] = p
	}

	r.mu.Lock()
	r.species = m
	r.mu.Unlock()
	return nil
}

// Lookup returns the species with the given id.
func (r *MemoryRegistry) Lookup(id string) (BasePlant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.species[normalize(id)]; ok {
		return p, nil
	}
	if s := r.suggest(normalize(id)); s != "" {
		return BasePlant{}, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownSpecies, id, s)
	}
	return BasePlant{}, fmt.Errorf("%w %q", ErrUnknownSpecies, id)
}

// IDs returns all species ids in sorted order.
func (r *MemoryRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.species))
	for _, p := range r.species {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return ids
}

// suggest returns the closest known id within an edit distance scaled to
// the id's length, or "".
func (r *MemoryRegistry) suggest(id string) string {
	if len(id) < 3 {
		return ""
	}
	limit := len(id)/3 + 1

	best, bestDist := "", limit+1
	for key, p := range r.species {
		dist := levenshtein.ComputeDistance(id, key)
		if dist < bestDist || (dist == bestDist && p.ID < best) {
			best, bestDist = p.ID, dist
		}
	}
	if bestDist > limit {
		return ""
	}
	return best
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
