package garden

import (
	"time"

	"github.com/chrissnell/gardensim/internal/calendar"
	"github.com/chrissnell/gardensim/internal/shadow"
	"github.com/chrissnell/gardensim/internal/types"
	"github.com/chrissnell/gardensim/internal/weather"
	"github.com/chrissnell/gardensim/pkg/solar"
)

// LiveStats returns the state of every bed at the last applied tick.
func (s *Simulation) LiveStats() types.LiveStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveStatsLocked(s.now)
}

func (s *Simulation) liveStatsLocked(now time.Time) types.LiveStats {
	stats := types.LiveStats{Time: now}
	for _, b := range s.beds {
		stats.Beds = append(stats.Beds, s.bedStats(b, now))
	}
	return stats
}

func (s *Simulation) bedStats(b *Bed, now time.Time) types.BedLiveStats {
	sun := b.SunDirection(now)
	shade := shadow.Compute(b.sceneObjects(), sun)
	day := calendar.DayOf(now, b.Location)

	var envp *weather.Environment
	if env, ok := b.envs[day]; ok {
		envp = &env
	}

	bs := types.BedLiveStats{
		BedID:          b.ID,
		Date:           day.ISO(),
		SunElevation:   sun.ElevationDeg,
		SunAzimuth:     sun.AzimuthDeg,
		Sunrise:        solar.FormatSunTime(sun.Sunrise, b.Location),
		Sunset:         solar.FormatSunTime(sun.Sunset, b.Location),
		SoilMoistureMm: b.moisture(envp),
		CapacityMm:     b.Soil.CapacityMm,
	}
	if b.envErr != nil {
		bs.WeatherError = b.envErr.Error()
	}

	// Sun and temperature so far today, up to the current hour.
	exposure := b.ExposureUntil(day, now, s.opts.SampleResolution)
	var hourly []float64
	if envp != nil {
		hourly = envp.HourlyTempC[:calendar.LocalHour(now, b.Location)]
	}

	for _, p := range b.Plants {
		age := p.AgeDays(now)
		var et0 *float64
		if envp != nil {
			et0 = envp.Weather.ET0Mm
		}
		band, _ := p.comfortBand(age, et0, b.Soil.CapacityMm, s.opts)
		band = band.WithOverrides(p.Species.WaterMin, p.Species.WaterMax)

		ps := types.PlantLiveStats{
			PlantID:      p.ID,
			SpeciesID:    p.Species.ID,
			X:            p.X,
			Y:            p.Y,
			Height:       p.Growth.Height,
			CanopyRadius: p.Growth.CanopyRadius,
			AgeDays:      age,
			Phase:        p.Phase(now).String(),
			Shaded:       shade.IsShaded(p.ID),
			SunHours:     exposure[p.ID].SunHours,
			TempOkHours:  tempOkHours(hourly, p.Species),
			WaterMinMm:   band.MinMm,
			WaterMaxMm:   band.MaxMm,
			Dead:         p.Mortality.Dead,
		}
		if p.Mortality.Dead {
			diedAt := p.Mortality.DiedAt
			ps.DeathReason = p.Mortality.Reason.String()
			ps.DiedAt = &diedAt
			ps.Details = p.Mortality.Details
		}
		bs.Plants = append(bs.Plants, ps)
	}

	for _, v := range shade.Vectors {
		bs.Shadows = append(bs.Shadows, types.ShadowLiveStats{
			ObjectID: v.ObjectID,
			OriginX:  v.OriginX,
			OriginY:  v.OriginY,
			EndX:     v.EndX,
			EndY:     v.EndY,
			Length:   v.Length,
		})
	}
	return bs
}
