// Package solar computes the sun's position and daily rise/set times for an
// observer. The formulation follows the NOAA solar calculator, which is
// equivalent to SunCalc for the precision a garden simulation needs.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// PositionResult is the apparent position of the sun for an observer.
type PositionResult struct {
	ElevationDeg   float64 // degrees above the horizon; <= 0 is night
	AzimuthDeg     float64 // degrees clockwise from north
	DeclinationDeg float64
	HourAngleDeg   float64
	EqOfTimeMin    float64
	CosZenith      float64
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// sunCoordinates returns the solar declination (radians) and the equation of
// time (minutes) at instant t.
func sunCoordinates(t time.Time) (declRad, eqTimeMin float64) {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	sunLong := L0 + C
	Ω := 125.04 - 1934.136*T
	λ := sunLong - 0.00569 - 0.00478*math.Sin(degToRad(Ω))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	eps := eps0 + 0.00256*math.Cos(degToRad(Ω))
	declRad = math.Asin(math.Sin(degToRad(eps)) * math.Sin(degToRad(λ)))

	y := math.Tan(degToRad(eps)/2) * math.Tan(degToRad(eps)/2)
	eqTimeMin = radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	return declRad, eqTimeMin
}

// CalculatePosition returns the sun's elevation and azimuth at instant t for
// an observer at lat/lon (degrees, east positive).
func CalculatePosition(lat, lon float64, t time.Time) PositionResult {
	t = t.UTC()
	δRad, eqTimeMin := sunCoordinates(t)

	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0
	tst := utcMin + 4*lon + eqTimeMin
	ha := tst/4 - 180
	switch {
	case ha < -180:
		ha += 360
	case ha > 180:
		ha -= 360
	}
	haRad := degToRad(ha)

	latRad := degToRad(lat)
	cosZen := math.Sin(latRad)*math.Sin(δRad) + math.Cos(latRad)*math.Cos(δRad)*math.Cos(haRad)
	cosZen = clampUnit(cosZen)
	zenRad := math.Acos(cosZen)
	elDeg := 90 - radToDeg(zenRad)

	// At the poles or with the sun at the zenith the azimuth is undefined;
	// report due south (north in the southern hemisphere) instead of NaN.
	azDeg := 180.0
	if lat < 0 {
		azDeg = 0
	}
	if azDen := math.Cos(latRad) * math.Sin(zenRad); math.Abs(azDen) > 1e-9 {
		azNum := math.Sin(latRad)*cosZen - math.Sin(δRad)
		azDeg = radToDeg(math.Acos(clampUnit(azNum / azDen)))
		if ha > 0 {
			azDeg = fixAngle(azDeg + 180)
		} else {
			azDeg = fixAngle(540 - azDeg)
		}
	}

	return PositionResult{
		ElevationDeg:   elDeg,
		AzimuthDeg:     azDeg,
		DeclinationDeg: radToDeg(δRad),
		HourAngleDeg:   ha,
		EqOfTimeMin:    eqTimeMin,
		CosZenith:      cosZen,
	}
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
