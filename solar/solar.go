// Package solar computes the solar zenith angle and local time at a point
// for a month and a UTC time of day.
package solar

import (
	"math"

	"hfprop/geo"
	"hfprop/mathutil"
)

// midnightEpsilon absorbs rounding so that a local time a hair past
// midnight still indexes as the end of the day.
const midnightEpsilon = 1e-9

// declinationDeg is the mid-month solar declination in degrees, January first.
var declinationDeg = [12]float64{
	-21.2, -13.0, -2.4, 9.4, 18.8, 23.3,
	21.3, 13.7, 3.0, -8.5, -18.4, -23.3,
}

// Declination returns the mid-month solar declination in radians.
// Months outside 1..12 are wrapped.
func Declination(month int) float64 {
	idx := ((month-1)%12 + 12) % 12
	return mathutil.DegToRad(declinationDeg[idx])
}

// LocalTime returns the local mean solar time at p as a fraction of a day
// in (0, 1]. utc is a fraction of a day. Exact midnight maps to 1.0.
func LocalTime(p geo.Point, utc float64) float64 {
	t := utc + p.Lon/(2*math.Pi)
	t = math.Mod(t, 1)
	if t <= midnightEpsilon {
		t += 1
	}
	// Rounding from the modulo can leave a value a hair above 1.
	if t > 1 {
		t = 1
	}
	return t
}

// ZenithAngle returns the solar zenith angle (radians, 0..π) at p.
func ZenithAngle(p geo.Point, utc float64, month int) float64 {
	decl := Declination(month)
	hourAngle := (LocalTime(p, utc) - 0.5) * 2 * math.Pi
	cosZ := math.Sin(p.Lat)*math.Sin(decl) + math.Cos(p.Lat)*math.Cos(decl)*math.Cos(hourAngle)
	return mathutil.SafeAcos(cosZ)
}

// Environment bundles the solar quantities computed at one location.
type Environment struct {
	Zenith    float64
	LocalTime float64
}

// At evaluates the solar environment at p.
func At(p geo.Point, utc float64, month int) Environment {
	return Environment{
		Zenith:    ZenithAngle(p, utc, month),
		LocalTime: LocalTime(p, utc),
	}
}

// IsDay reports whether the sun is above the horizon.
func (e Environment) IsDay() bool {
	return e.Zenith < math.Pi/2
}
