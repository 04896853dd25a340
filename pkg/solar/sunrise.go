package solar

import (
	"math"
	"time"
)

// horizonZenithDeg is the zenith of the sun's upper limb at apparent
// sunrise/sunset, including standard atmospheric refraction.
const horizonZenithDeg = 90.833

// SunTimes holds the rise, transit and set times of the sun for one civil day.
// Sunrise and Sunset are zero when the sun does not cross the horizon that
// day; PolarDay or PolarNight then says which case applies.
type SunTimes struct {
	Sunrise         time.Time
	Sunset          time.Time
	SolarNoon       time.Time
	DaylightSeconds float64
	PolarDay        bool
	PolarNight      bool
}

// CalculateSunTimes returns sunrise, solar noon and sunset for the civil
// date of t in loc. A nil loc means t's own location.
func CalculateSunTimes(lat, lon float64, t time.Time, loc *time.Location) SunTimes {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.In(loc).Date()
	midnightUTC := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	// Longitude shifts solar noon by 4 minutes per degree; the equation of
	// time is evaluated at approximate local noon of the date.
	approxNoon := midnightUTC.Add(time.Duration((720-4*lon)*float64(time.Minute)))
	δRad, eqTimeMin := sunCoordinates(approxNoon)
	noonMin := 720 - 4*lon - eqTimeMin

	st := SunTimes{SolarNoon: minutesAfter(midnightUTC, noonMin)}

	latRad := degToRad(lat)
	cosH := math.Cos(degToRad(horizonZenithDeg))/(math.Cos(latRad)*math.Cos(δRad)) -
		math.Tan(latRad)*math.Tan(δRad)

	switch {
	case math.IsNaN(cosH):
		return st
	case cosH < -1:
		st.PolarDay = true
		st.DaylightSeconds = 86400
		return st
	case cosH > 1:
		st.PolarNight = true
		return st
	}

	// Hour angle in degrees, 4 minutes per degree.
	hMin := radToDeg(math.Acos(cosH)) * 4
	st.Sunrise = minutesAfter(midnightUTC, noonMin-hMin)
	st.Sunset = minutesAfter(midnightUTC, noonMin+hMin)
	st.DaylightSeconds = st.Sunset.Sub(st.Sunrise).Seconds()

	return st
}

func minutesAfter(base time.Time, minutes float64) time.Time {
	return base.Add(time.Duration(minutes * float64(time.Minute)))
}

// FormatSunTime formats t as a wall clock time in loc, or "" for the zero
// time used to signal polar conditions.
func FormatSunTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("3:04 PM")
}
