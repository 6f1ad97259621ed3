package geo

import (
	"math"

	"hfprop/mathutil"
)

// HopDistance returns the ground range (radians) of one ionospheric hop for a
// ray leaving the ground at elevation elev (radians) and reflecting at
// virtual height h (km) above a spherical Earth.
func HopDistance(elev, h float64) float64 {
	i := IncidenceAngle(elev, h)
	return 2 * (math.Pi/2 - elev - i)
}

// ElevationFor is the inverse of HopDistance: the takeoff angle that covers
// hop radians of ground range with a reflection at virtual height h.
func ElevationFor(hop, h float64) float64 {
	half := hop / 2
	ratio := EarthRadiusKm / (EarthRadiusKm + h)
	return math.Atan2(math.Cos(half)-ratio, math.Sin(half))
}

// IncidenceAngle is the angle between the ray and the local vertical at
// height h for a ray launched at elevation elev.
func IncidenceAngle(elev, h float64) float64 {
	return mathutil.SafeAsin(EarthRadiusKm * math.Cos(elev) / (EarthRadiusKm + h))
}

// CosIncidence returns cos(IncidenceAngle(elev, h)) without the inverse trig.
func CosIncidence(elev, h float64) float64 {
	s := EarthRadiusKm * math.Cos(elev) / (EarthRadiusKm + h)
	return mathutil.SafeSqrt(1 - s*s)
}

// SlantRange is the straight-line length (km) from the ground to the
// reflection point at height h for elevation elev.
func SlantRange(elev, h float64) float64 {
	r := EarthRadiusKm + h
	c := EarthRadiusKm * math.Cos(elev)
	return mathutil.SafeSqrt(r*r-c*c) - EarthRadiusKm*math.Sin(elev)
}

// HopCount returns the number of hops (at least 1) needed to cover dist
// radians when a single hop can span at most maxHop radians.
func HopCount(dist, maxHop float64) int {
	if maxHop <= 0 {
		return 1
	}
	n := int(math.Ceil(dist/maxHop - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}
