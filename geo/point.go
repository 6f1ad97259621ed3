// Package geo models great-circle path geometry on a spherical Earth and the
// per-hop ray geometry between the ground and a reflecting layer.
package geo

import (
	"fmt"
	"math"

	"hfprop/mathutil"
)

// EarthRadiusKm is the fixed Earth radius used by every geometric formula.
const EarthRadiusKm = 6370.0

// Point is a geographic location in radians.
type Point struct {
	Lat float64
	Lon float64
}

// PointFromDegrees builds a Point from degree coordinates.
func PointFromDegrees(latDeg, lonDeg float64) Point {
	return Point{
		Lat: mathutil.DegToRad(latDeg),
		Lon: mathutil.WrapPi(mathutil.DegToRad(lonDeg)),
	}
}

// Degrees returns the latitude and longitude in degrees.
func (p Point) Degrees() (latDeg, lonDeg float64) {
	return mathutil.RadToDeg(p.Lat), mathutil.RadToDeg(p.Lon)
}

func (p Point) String() string {
	lat, lon := p.Degrees()
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// Vec returns the unit vector of p in an Earth-centered frame.
func (p Point) Vec() Vec3 {
	clat := math.Cos(p.Lat)
	return Vec3{
		X: clat * math.Cos(p.Lon),
		Y: clat * math.Sin(p.Lon),
		Z: math.Sin(p.Lat),
	}
}

// PointFromVec converts a (not necessarily unit) vector to a Point.
func PointFromVec(v Vec3) Point {
	n := v.Normalize()
	return Point{
		Lat: mathutil.SafeAsin(n.Z),
		Lon: math.Atan2(n.Y, n.X),
	}
}

// Vec3 is a Cartesian vector.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Mul(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Mul(1 / n)
}
