package engine

import (
	"math"

	"hfprop/coeffs"
	"hfprop/geo"
	"hfprop/geomag"
	"hfprop/ionosphere"
	"hfprop/mathutil"
)

const (
	shortPathKm  = 2000.0
	mediumPathKm = 4000.0
	nearOffsetKm = 1000.0
	farOffsetKm  = 2000.0
)

// controlPoints samples the path: the midpoint alone up to 2000 km, points
// 1000 km from each end plus the midpoint up to 4000 km, and otherwise
// points 1000 and 2000 km from each end plus the midpoint. The result is
// ordered from the transmitter.
func controlPoints(path *geo.Path, utc float64, month int, field *geomag.Model, table *coeffs.Table) []ionosphere.ControlPoint {
	km := path.DistanceKm()
	near := nearOffsetKm / geo.EarthRadiusKm
	far := farOffsetKm / geo.EarthRadiusKm
	mid := path.Distance / 2

	var dists []float64
	switch {
	case km <= shortPathKm:
		dists = []float64{mid}
	case km <= mediumPathKm:
		dists = []float64{near, mid, path.Distance - near}
	default:
		dists = []float64{near, far, mid, path.Distance - far, path.Distance - near}
	}
	cps := make([]ionosphere.ControlPoint, len(dists))
	for i, d := range dists {
		cps[i] = ionosphere.NewControlPoint(path.PointAtDistance(d), d, utc, month, field, table)
	}
	return cps
}

// buildProfiles returns one profile per path section, ordered from the
// transmitter. Five control points collapse into three profiles whose E
// region comes from the 1000 km point and F region from the 2000 km point.
func buildProfiles(cps []ionosphere.ControlPoint, table *coeffs.Table, ssn, utc float64) []*ionosphere.Profile {
	raw := make([]*ionosphere.Profile, len(cps))
	for i, cp := range cps {
		raw[i] = ionosphere.Compute(cp, table, ssn, utc)
	}
	if len(raw) != 5 {
		return raw
	}
	return []*ionosphere.Profile{
		ionosphere.Blend(raw[0], raw[1]),
		raw[2],
		ionosphere.Blend(raw[4], raw[3]),
	}
}

// pathAverages are the per-call quantities averaged over the path.
type pathAverages struct {
	absorption float64
	gyro       float64
	magLatDeg  float64
	esMedian   float64
}

func averages(cps []ionosphere.ControlPoint, profiles []*ionosphere.Profile) pathAverages {
	var a pathAverages
	for _, p := range profiles {
		a.absorption += p.AbsorptionIndex
		a.gyro += p.GyroFreq
		a.esMedian += p.EsMedian
	}
	n := float64(len(profiles))
	a.absorption /= n
	a.gyro /= n
	a.esMedian /= n
	for _, cp := range cps {
		a.magLatDeg += mathutil.RadToDeg(math.Abs(cp.Mag.MagLat))
	}
	a.magLatDeg /= float64(len(cps))
	return a
}

// groundAt returns the ground constants of the control point nearest d
// radians from the transmitter.
func groundAt(cps []ionosphere.ControlPoint, d float64) ionosphere.Ground {
	best := cps[0]
	for _, cp := range cps[1:] {
		if math.Abs(cp.Distance-d) < math.Abs(best.Distance-d) {
			best = cp
		}
	}
	return best.Ground
}
