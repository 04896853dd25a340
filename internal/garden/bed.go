// Package garden runs the per-tick simulation of every bed: weather, soil,
// sunlight and shading, growth and mortality.
package garden

import (
	"time"

	"github.com/chrissnell/gardensim/internal/calendar"
	"github.com/chrissnell/gardensim/internal/shadow"
	"github.com/chrissnell/gardensim/internal/soil"
	"github.com/chrissnell/gardensim/internal/weather"
	"github.com/chrissnell/gardensim/pkg/solar"
)

// envHistory bounds how many days of resolved weather a bed keeps.
const envHistory = 4

// Bed is a garden bed at a fixed location with its own soil.
type Bed struct {
	ID       string
	Lat, Lon float64
	Location *time.Location
	Soil     *soil.State
	// Objects are the non-plant shadow casters: trees and structures.
	Objects []shadow.Object
	Plants  []*Plant

	day     calendar.Day
	hasDay  bool
	// reached is the latest day the bed has entered.
	reached calendar.Day
	envs    map[calendar.Day]weather.Environment
	envErr  error
}

// NewBed returns an empty bed. A nil loc means UTC.
func NewBed(id string, lat, lon float64, loc *time.Location, s *soil.State) *Bed {
	if loc == nil {
		loc = time.UTC
	}
	return &Bed{
		ID:       id,
		Lat:      lat,
		Lon:      lon,
		Location: loc,
		Soil:     s,
		envs:     make(map[calendar.Day]weather.Environment),
	}
}

// Plant returns the plant with the given id.
func (b *Bed) Plant(id string) (*Plant, bool) {
	for _, p := range b.Plants {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Day returns the simulated day the bed was last advanced to.
func (b *Bed) Day() (calendar.Day, bool) {
	return b.day, b.hasDay
}

func (b *Bed) sceneObjects() []shadow.Object {
	objects := make([]shadow.Object, 0, len(b.Objects)+len(b.Plants))
	objects = append(objects, b.Objects...)
	for _, p := range b.Plants {
		objects = append(objects, p.sceneObject())
	}
	return objects
}

// SunDirection returns the sun as seen from the bed at t.
func (b *Bed) SunDirection(t time.Time) solar.SunDirection {
	return solar.ComputeSunDirection(b.Lat, b.Lon, t, b.Location)
}

// Shadows computes the shadows cast in the bed at t.
func (b *Bed) Shadows(t time.Time) shadow.Data {
	return shadow.Compute(b.sceneObjects(), b.SunDirection(t))
}

// Exposure is a plant's direct and shaded daylight over one day.
type Exposure struct {
	SunHours    float64
	ShadedHours float64
}

// Exposure samples day at the given resolution and returns each plant's
// sunlight, keyed by plant id. The result depends only on the day and the
// scene, never on how the clock reached it.
func (b *Bed) Exposure(day calendar.Day, resolution time.Duration) map[string]Exposure {
	return b.ExposureUntil(day, (day+1).Start(b.Location), resolution)
}

// ExposureUntil is Exposure restricted to the samples of day that fall
// before until.
func (b *Bed) ExposureUntil(day calendar.Day, until time.Time, resolution time.Duration) map[string]Exposure {
	if resolution <= 0 {
		resolution = DefaultSampleResolution
	}
	step := resolution.Hours()
	start, end := day.Start(b.Location), (day + 1).Start(b.Location)
	if until.Before(end) {
		end = until
	}
	objects := b.sceneObjects()

	out := make(map[string]Exposure, len(b.Plants))
	for _, p := range b.Plants {
		out[p.ID] = Exposure{}
	}

	for t := start.Add(resolution / 2); t.Before(end); t = t.Add(resolution) {
		sun := solar.ComputeSunDirection(b.Lat, b.Lon, t, b.Location)
		if sun.IsNight() {
			continue
		}
		shade := shadow.Compute(objects, sun)
		for _, p := range b.Plants {
			e := out[p.ID]
			if shade.IsShaded(p.ID) {
				e.ShadedHours += step
			} else {
				e.SunHours += step
			}
			out[p.ID] = e
		}
	}
	return out
}

// moisture is the soil moisture the bed's plants experience under env.
func (b *Bed) moisture(env *weather.Environment) float64 {
	if env != nil && env.SoilMoistureMm != nil {
		return *env.SoilMoistureMm
	}
	return b.Soil.MoistureMm
}

func (b *Bed) storeEnv(day calendar.Day, env weather.Environment) {
	b.envs[day] = env
	for d := range b.envs {
		if d < day-envHistory || d > day+envHistory {
			delete(b.envs, d)
		}
	}
}
