package geo

import (
	"math"

	"hfprop/mathutil"
)

const (
	// nearZeroDist treats tx/rx closer than this (radians, about 6 m) as coincident.
	nearZeroDist = 1e-6
	// nearAntipodal treats distances within this of π as antipodal.
	nearAntipodal = 1e-6
)

// Path is the great-circle geometry between a transmitter and a receiver.
// Distance is in radians in [0, π]; azimuths are in radians in [0, 2π).
type Path struct {
	Tx        Point
	Rx        Point
	Distance  float64
	AzimuthTR float64
	AzimuthRT float64
	// Long is set on the complement path that runs the long way round.
	Long bool
}

// NewPath computes the short great-circle path from tx to rx.
func NewPath(tx, rx Point) *Path {
	p := &Path{}
	p.SetTxRx(tx, rx)
	return p
}

// SetTxRx recomputes distance and azimuths for a new endpoint pair.
func (p *Path) SetTxRx(tx, rx Point) (distance, azTR, azRT float64) {
	p.Tx = tx
	p.Rx = rx
	p.Long = false
	p.Distance = CentralAngle(tx, rx)
	p.AzimuthTR = Azimuth(tx, rx, p.Distance)
	p.AzimuthRT = Azimuth(rx, tx, p.Distance)
	return p.Distance, p.AzimuthTR, p.AzimuthRT
}

// DistanceKm returns the path length along the ground.
func (p *Path) DistanceKm() float64 {
	return p.Distance * EarthRadiusKm
}

// Complement returns the long-path geometry: the same endpoints reached by
// leaving tx in the opposite direction.
func (p *Path) Complement() *Path {
	return &Path{
		Tx:        p.Tx,
		Rx:        p.Rx,
		Distance:  2*math.Pi - p.Distance,
		AzimuthTR: mathutil.WrapTwoPi(p.AzimuthTR + math.Pi),
		AzimuthRT: mathutil.WrapTwoPi(p.AzimuthRT + math.Pi),
		Long:      true,
	}
}

// PointAtDistance returns the point d radians from Tx along the path.
func (p *Path) PointAtDistance(d float64) Point {
	return Destination(p.Tx, p.AzimuthTR, d)
}

// PointAtFraction returns the point at fraction f (0 = Tx, 1 = Rx) of the path.
func (p *Path) PointAtFraction(f float64) Point {
	return p.PointAtDistance(f * p.Distance)
}

// Midpoint returns the path midpoint.
func (p *Path) Midpoint() Point {
	return p.PointAtFraction(0.5)
}

// CentralAngle is the haversine great-circle angle between a and b.
func CentralAngle(a, b Point) float64 {
	dLat := b.Lat - a.Lat
	dLon := b.Lon - a.Lon
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat)*math.Cos(b.Lat)*math.Sin(dLon/2)*math.Sin(dLon/2)
	s = mathutil.Clamp(s, 0, 1)
	return 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}

// Azimuth is the initial bearing from a toward b, given their central angle.
// Coincident and antipodal pairs have no defined bearing and return 0.
func Azimuth(a, b Point, dist float64) float64 {
	if dist < nearZeroDist || dist > math.Pi-nearAntipodal {
		return 0
	}
	y := math.Sin(b.Lon-a.Lon) * math.Cos(b.Lat)
	x := math.Cos(a.Lat)*math.Sin(b.Lat) - math.Sin(a.Lat)*math.Cos(b.Lat)*math.Cos(b.Lon-a.Lon)
	if math.Abs(x) < 1e-15 && math.Abs(y) < 1e-15 {
		return 0
	}
	return mathutil.WrapTwoPi(math.Atan2(y, x))
}

// Destination walks d radians from start on the initial bearing az.
func Destination(start Point, az, d float64) Point {
	sinLat := math.Sin(start.Lat)*math.Cos(d) + math.Cos(start.Lat)*math.Sin(d)*math.Cos(az)
	lat := mathutil.SafeAsin(sinLat)
	y := math.Sin(az) * math.Sin(d) * math.Cos(start.Lat)
	x := math.Cos(d) - math.Sin(start.Lat)*sinLat
	lon := start.Lon + math.Atan2(y, x)
	return Point{Lat: lat, Lon: mathutil.WrapPi(lon)}
}
