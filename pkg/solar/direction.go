package solar

import "time"

// SunDirection is the sun's position for an instant expressed in the garden's
// screen convention: azimuth 0 points north, 90 east, 180 south, 270 west.
type SunDirection struct {
	ElevationDeg float64
	AzimuthDeg   float64
	// RawAzimuthDeg is measured from south, clockwise (SunCalc convention).
	RawAzimuthDeg float64
	SunTimes
}

// IsNight reports whether the sun is at or below the horizon.
func (d SunDirection) IsNight() bool {
	return d.ElevationDeg <= 0
}

// ComputeSunDirection returns the sun direction and the day's sun times for
// an observer at lat/lon at instant t. Sun times are reported for the civil
// day of t in loc (t's own location when loc is nil).
func ComputeSunDirection(lat, lon float64, t time.Time, loc *time.Location) SunDirection {
	pos := CalculatePosition(lat, lon, t)
	raw := fixAngle(pos.AzimuthDeg - 180)

	return SunDirection{
		ElevationDeg:  pos.ElevationDeg,
		AzimuthDeg:    ScreenAzimuth(raw),
		RawAzimuthDeg: raw,
		SunTimes:      CalculateSunTimes(lat, lon, t, loc),
	}
}

// ScreenAzimuth converts a south-based azimuth to the screen convention.
func ScreenAzimuth(rawAzimuthDeg float64) float64 {
	return fixAngle(rawAzimuthDeg + 180)
}
