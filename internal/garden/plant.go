package garden

import (
	"time"

	"github.com/chrissnell/gardensim/internal/growth"
	"github.com/chrissnell/gardensim/internal/lifestage"
	"github.com/chrissnell/gardensim/internal/mortality"
	"github.com/chrissnell/gardensim/internal/shadow"
	"github.com/chrissnell/gardensim/internal/soil"
	"github.com/chrissnell/gardensim/internal/species"
	"github.com/google/uuid"
)

// Plant is one planted instance of a species in a bed.
type Plant struct {
	ID        string
	Species   species.BasePlant
	X, Y      float64
	PlantedAt time.Time

	Growth    growth.State
	Mortality mortality.State
}

// NewPlant places a plant of species sp at (x, y). An empty id is replaced
// with a random UUID.
func NewPlant(id string, sp species.BasePlant, x, y float64, plantedAt time.Time) *Plant {
	if id == "" {
		id = uuid.NewString()
	}
	return &Plant{
		ID:        id,
		Species:   sp,
		X:         x,
		Y:         y,
		PlantedAt: plantedAt,
	}
}

func (p *Plant) AgeDays(now time.Time) int {
	return lifestage.AgeDays(p.PlantedAt, now)
}

func (p *Plant) Timing() lifestage.Timing {
	return lifestage.Timing{
		GerminationDays: p.Species.GerminationDays,
		FloweringDays:   p.Species.FloweringDays,
		FruitingDays:    p.Species.FruitingDays,
		LifespanDays:    p.Species.LifespanDays,
	}
}

// Phase is the display phase at now. A plant the mortality engine has
// killed always reports Dead.
func (p *Plant) Phase(now time.Time) lifestage.Phase {
	if p.Mortality.Dead {
		return lifestage.Dead
	}
	return lifestage.PhaseAt(p.PlantedAt, now, p.Timing())
}

// Planted reports whether the plant is in the ground at now.
func (p *Plant) Planted(now time.Time) bool {
	return !p.PlantedAt.After(now)
}

func (p *Plant) sceneObject() shadow.Object {
	return shadow.NewPlant(p.ID, p.X, p.Y, p.Growth.Height, p.Growth.CanopyRadius)
}

// comfortBand is the dynamic band for the plant at ageDays, before
// species overrides, together with the crop coefficient used.
func (p *Plant) comfortBand(ageDays int, et0 *float64, capacityMm float64, opts Options) (soil.Band, float64) {
	maturity, _ := growth.ParseMaturityDays(p.Species.MaturitySpec)
	kc := soil.CropCoefficient(p.Species.Kc, ageDays, maturity, opts.DefaultKc)

	rootDepth := opts.RootDepthM
	if p.Species.RootDepthM != nil && *p.Species.RootDepthM > 0 {
		rootDepth = *p.Species.RootDepthM
	}

	band := soil.ComfortBand(soil.BandInput{
		Kc:          kc,
		ET0Mm:       et0,
		CapacityMm:  capacityMm,
		RootDepthM:  rootDepth,
		AWCMmPerM:   opts.AWCMmPerM,
		FallbackET0: opts.FallbackET0,
	})
	return band, kc
}

// tempOkHours counts hours strictly inside the species temperature range.
// A missing limit leaves that side unbounded.
func tempOkHours(hourly []float64, sp species.BasePlant) float64 {
	ok := 0.0
	for _, t := range hourly {
		if sp.TempMin != nil && t <= *sp.TempMin {
			continue
		}
		if sp.TempMax != nil && t >= *sp.TempMax {
			continue
		}
		ok++
	}
	return ok
}
