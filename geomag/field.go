// Package geomag evaluates a low-degree spherical-harmonic model of the main
// geomagnetic field and derives the quantities the ionospheric model needs:
// dip angle, magnetic latitude and electron gyrofrequency.
package geomag

import (
	"math"

	"hfprop/geo"
	"hfprop/mathutil"
)

const (
	// refRadiusKm is the model reference radius.
	refRadiusKm = 6371.2
	// ShellHeightKm is the height at which dip and gyrofrequency are evaluated.
	ShellHeightKm = 300.0
	// gyroMHzPerNT is e/(2π m_e) expressed in MHz per nanotesla.
	gyroMHzPerNT = 2.7992e-5
	modelEpoch   = 2020.0
)

// coeff is one Gauss coefficient pair with its secular variation.
type coeff struct {
	n, m   int
	g, h   float64
	gd, hd float64
}

// igrf2020 holds the degree-3 IGRF-13 main field (nT) and secular variation (nT/yr).
var igrf2020 = [...]coeff{
	{1, 0, -29404.8, 0, 5.7, 0},
	{1, 1, -1450.9, 4652.5, 7.4, -25.9},
	{2, 0, -2499.6, 0, -11.0, 0},
	{2, 1, 2982.0, -2991.6, -7.0, -30.2},
	{2, 2, 1677.0, -734.6, -2.1, -22.4},
	{3, 0, 1363.2, 0, 2.2, 0},
	{3, 1, -2381.2, -82.1, -5.9, 6.0},
	{3, 2, 1236.2, 241.9, 3.1, -1.1},
	{3, 3, 525.7, -543.4, -12.0, 0.5},
}

// Model is an immutable set of Gauss coefficients for one epoch.
type Model struct {
	terms [len(igrf2020)]coeff
	Year  float64
}

// Default returns the model at its base epoch.
func Default() *Model {
	return ForYear(modelEpoch)
}

// ForYear extrapolates the base coefficients linearly to year.
func ForYear(year float64) *Model {
	m := &Model{Year: year}
	dt := year - modelEpoch
	for i, c := range igrf2020 {
		c.g += c.gd * dt
		c.h += c.hd * dt
		m.terms[i] = c
	}
	return m
}

// Vector is a field vector in nT in the local north/east/down frame.
type Vector struct {
	North float64
	East  float64
	Down  float64
}

// Horizontal returns the horizontal intensity.
func (v Vector) Horizontal() float64 {
	return math.Hypot(v.North, v.East)
}

// Total returns the total intensity.
func (v Vector) Total() float64 {
	return math.Sqrt(v.North*v.North + v.East*v.East + v.Down*v.Down)
}

// Field evaluates the model at p and heightKm above the reference sphere.
func (m *Model) Field(p geo.Point, heightKm float64) Vector {
	theta := math.Pi/2 - p.Lat
	x := math.Cos(theta)
	s := math.Sin(theta)
	ratio := refRadiusKm / (refRadiusKm + heightKm)

	var br, bt, bp float64
	for _, c := range m.terms {
		pnm, dpnm, pnmOverS := legendre(c.n, c.m, x, s)
		scale := math.Pow(ratio, float64(c.n+2))
		cm := math.Cos(float64(c.m) * p.Lon)
		sm := math.Sin(float64(c.m) * p.Lon)
		gh := c.g*cm + c.h*sm
		br += float64(c.n+1) * scale * gh * pnm
		bt -= scale * gh * dpnm
		bp += scale * float64(c.m) * (c.g*sm - c.h*cm) * pnmOverS
	}
	return Vector{North: -bt, East: bp, Down: -br}
}

// legendre returns the Schmidt semi-normalized P_n^m(cos θ), its θ derivative
// and P_n^m / sin θ (finite at the poles) for n ≤ 3.
func legendre(n, m int, x, s float64) (p, dp, pOverS float64) {
	const (
		sqrt3     = 1.7320508075688772
		sqrt3Of8  = 0.6123724356957945
		sqrt15o2  = 1.9364916731037085
		sqrt5Of8  = 0.7905694150420949
		sqrt3Half = sqrt3 / 2
	)
	switch {
	case n == 1 && m == 0:
		return x, -s, 0
	case n == 1 && m == 1:
		return s, x, 1
	case n == 2 && m == 0:
		return (3*x*x - 1) / 2, -3 * x * s, 0
	case n == 2 && m == 1:
		return sqrt3 * x * s, sqrt3 * (x*x - s*s), sqrt3 * x
	case n == 2 && m == 2:
		return sqrt3Half * s * s, sqrt3 * s * x, sqrt3Half * s
	case n == 3 && m == 0:
		return (5*x*x*x - 3*x) / 2, -1.5 * s * (5*x*x - 1), 0
	case n == 3 && m == 1:
		return sqrt3Of8 * s * (5*x*x - 1), sqrt3Of8 * (x*(5*x*x-1) - 10*x*s*s), sqrt3Of8 * (5*x*x - 1)
	case n == 3 && m == 2:
		return sqrt15o2 * x * s * s, sqrt15o2 * s * (2*x*x - s*s), sqrt15o2 * x * s
	case n == 3 && m == 3:
		return sqrt5Of8 * s * s * s, 3 * sqrt5Of8 * s * s * x, sqrt5Of8 * s * s
	}
	return 0, 0, 0
}

// Pole is the northern geomagnetic (dipole) pole.
func (m *Model) Pole() geo.Point {
	return geo.PointFromVec(m.DipoleAxis())
}

// DipoleAxis returns the unit vector of the northern geomagnetic pole from
// the degree-1 terms.
func (m *Model) DipoleAxis() geo.Vec3 {
	var g10, g11, h11 float64
	for _, c := range m.terms {
		if c.n != 1 {
			continue
		}
		if c.m == 0 {
			g10 = c.g
		} else {
			g11, h11 = c.g, c.h
		}
	}
	return geo.Vec3{X: -g11, Y: -h11, Z: -g10}.Normalize()
}

// Environment is the geomagnetic state at one location.
type Environment struct {
	MagLat   float64 // geomagnetic (dipole) latitude, radians
	Dip      float64 // inclination at ShellHeightKm, radians, positive downward
	GyroFreq float64 // electron gyrofrequency at ShellHeightKm, MHz
	Modip    float64 // modified dip latitude, radians
}

// At evaluates the geomagnetic environment at p.
func (m *Model) At(p geo.Point) Environment {
	v := m.Field(p, ShellHeightKm)
	dip := math.Atan2(v.Down, v.Horizontal())
	return Environment{
		MagLat:   mathutil.SafeAsin(p.Vec().Dot(m.DipoleAxis())),
		Dip:      dip,
		GyroFreq: gyroMHzPerNT * v.Total(),
		Modip:    ModifiedDip(dip, p.Lat),
	}
}

// ModifiedDip returns Rawer's modified dip latitude atan(I / sqrt(cos φ)).
func ModifiedDip(dip, lat float64) float64 {
	c := math.Cos(lat)
	if c < 1e-6 {
		c = 1e-6
	}
	return math.Atan(dip / math.Sqrt(c))
}
