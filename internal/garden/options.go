package garden

import (
	"time"

	"github.com/chrissnell/gardensim/internal/mortality"
	"github.com/chrissnell/gardensim/internal/soil"
)

const (
	DefaultSampleResolution = 15 * time.Minute
	DefaultModelVersion     = "gardensim-1"
)

// Options tune the simulation. Zero values take package defaults.
type Options struct {
	// SampleResolution is the step used to integrate a day's sunlight.
	SampleResolution time.Duration
	WaterUseFactor   float64
	FallbackET0      float64
	RootDepthM       float64
	AWCMmPerM        float64
	DefaultKc        float64
	// TreatDailyMeanAsHourly lets temperature mortality run on the flat
	// daily-mean series when a source has no hourly data.
	TreatDailyMeanAsHourly bool
	Grace                  mortality.Defaults
	ModelVersion           string
}

func (o Options) withDefaults() Options {
	if o.SampleResolution <= 0 {
		o.SampleResolution = DefaultSampleResolution
	}
	if o.WaterUseFactor <= 0 {
		o.WaterUseFactor = 1
	}
	if o.FallbackET0 <= 0 {
		o.FallbackET0 = soil.DefaultFallbackET0
	}
	if o.RootDepthM <= 0 {
		o.RootDepthM = soil.DefaultRootDepthM
	}
	if o.AWCMmPerM <= 0 {
		o.AWCMmPerM = soil.DefaultAWCMmPerM
	}
	if o.DefaultKc <= 0 {
		o.DefaultKc = soil.DefaultKc
	}
	if o.Grace == (mortality.Defaults{}) {
		o.Grace = mortality.DefaultGrace
	}
	if o.ModelVersion == "" {
		o.ModelVersion = DefaultModelVersion
	}
	return o
}
