package garden

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/gardensim/internal/mortality"
	"github.com/chrissnell/gardensim/internal/shadow"
	"github.com/chrissnell/gardensim/internal/species"
	"github.com/chrissnell/gardensim/internal/weather"
)

func (s *Simulation) bedLocked(id string) (*Bed, error) {
	b, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("bed %q: %w", id, ErrUnknownBed)
	}
	return b, nil
}

// Irrigate adds mm of water to a bed's soil.
func (s *Simulation) Irrigate(bedID string, mm float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bedLocked(bedID)
	if err != nil {
		return err
	}
	b.Soil.Irrigate(mm)
	s.logger.Infow("irrigated", "bed", bedID, "mm", mm, "moisture_mm", b.Soil.MoistureMm)
	return nil
}

// PlacePlant plants a new instance of speciesID in a bed. An empty plantID
// is generated.
func (s *Simulation) PlacePlant(bedID, plantID, speciesID string, x, y float64, plantedAt time.Time) (*Plant, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("placing %q: %w", speciesID, species.ErrUnknownSpecies)
	}
	sp, err := s.registry.Lookup(speciesID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bedLocked(bedID)
	if err != nil {
		return nil, err
	}
	p := NewPlant(plantID, sp, x, y, plantedAt)
	if b.hasObject(p.ID) {
		return nil, fmt.Errorf("plant %q in bed %q: %w", p.ID, bedID, ErrDuplicateID)
	}
	b.Plants = append(b.Plants, p)
	s.logger.Infow("plant placed", "bed", bedID, "plant", p.ID, "species", sp.ID, "x", x, "y", y)
	return p, nil
}

// PlaceObject adds a tree or structure to a bed.
func (s *Simulation) PlaceObject(bedID string, o shadow.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bedLocked(bedID)
	if err != nil {
		return err
	}
	if o.Kind == shadow.Plant {
		return fmt.Errorf("object %q: plants are placed with PlacePlant", o.ID)
	}
	if b.hasObject(o.ID) {
		return fmt.Errorf("object %q in bed %q: %w", o.ID, bedID, ErrDuplicateID)
	}
	b.Objects = append(b.Objects, o)
	return nil
}

// RemoveObject removes a plant, tree or structure from a bed.
func (s *Simulation) RemoveObject(bedID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bedLocked(bedID)
	if err != nil {
		return err
	}
	for i, p := range b.Plants {
		if p.ID == id {
			b.Plants = append(b.Plants[:i], b.Plants[i+1:]...)
			return nil
		}
	}
	for i, o := range b.Objects {
		if o.ID == id {
			b.Objects = append(b.Objects[:i], b.Objects[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%q in bed %q: %w", id, bedID, ErrUnknownItem)
}

// SetOverride replaces the debug override. Weather already resolved under
// the previous override is discarded.
func (s *Simulation) SetOverride(o weather.Override) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.override = o
	s.overrideGen++
	for _, b := range s.beds {
		clear(b.envs)
	}
	s.logger.Infow("override updated", "enabled", o.Enabled, "temp_c", o.TempC, "soil_moisture_mm", o.SoilMoistureMm)
}

// KillPlant declares a plant dead at the current simulated instant,
// bypassing grace periods.
func (s *Simulation) KillPlant(bedID, plantID string, reason mortality.Reason, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bedLocked(bedID)
	if err != nil {
		return err
	}
	p, ok := b.Plant(plantID)
	if !ok {
		return fmt.Errorf("plant %q in bed %q: %w", plantID, bedID, ErrUnknownItem)
	}
	if p.Mortality.Dead {
		return nil
	}
	p.Mortality = mortality.Kill(p.Mortality, s.now, reason, details)
	s.logger.Infow("plant killed", "bed", bedID, "plant", plantID, "reason", reason.String(), "details", details, "at", s.now)
	return nil
}

// ApplyGrowth grows a bed's plants for its current day without waiting for
// midnight. The day still grows only once.
func (s *Simulation) ApplyGrowth(ctx context.Context, bedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bedLocked(bedID)
	if err != nil {
		return err
	}
	if !b.hasDay {
		return fmt.Errorf("bed %q has not been simulated yet", bedID)
	}
	env, ok := b.envs[b.day]
	if !ok {
		return fmt.Errorf("bed %q has no weather for %s", bedID, b.day.ISO())
	}
	s.closeDay(ctx, b, b.day, &env)
	return nil
}

func (b *Bed) hasObject(id string) bool {
	if _, ok := b.Plant(id); ok {
		return true
	}
	for _, o := range b.Objects {
		if o.ID == id {
			return true
		}
	}
	return false
}
