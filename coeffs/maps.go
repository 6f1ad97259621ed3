package coeffs

import (
	"math"

	"hfprop/mathutil"
)

// MaxEffectiveSSN is where the CCIR maps saturate.
const MaxEffectiveSSN = 160.0

// geoTerms fills buf with the geographic basis functions selected by kim and
// returns how many were written. Order 0 contributes sin^i(lat); order j > 0
// contributes sin^i(lat) cos^j(lat) times cos(j lon), then the sin(j lon) set.
func geoTerms(kim [MaxOrders]int32, lat, lon float64, buf *[MaxGeoTerms]float64) int {
	s := math.Sin(lat)
	c := math.Cos(lat)
	k := 0
	for j := 0; j < MaxOrders; j++ {
		n := int(kim[j])
		if n == 0 {
			continue
		}
		if j == 0 {
			pw := 1.0
			for i := 0; i < n && k < MaxGeoTerms; i++ {
				buf[k] = pw
				pw *= s
				k++
			}
			continue
		}
		cj := math.Pow(c, float64(j))
		cosL := math.Cos(float64(j) * lon)
		sinL := math.Sin(float64(j) * lon)
		pw := cj
		for i := 0; i < n && k < MaxGeoTerms; i++ {
			buf[k] = pw * cosL
			pw *= s
			k++
		}
		pw = cj
		for i := 0; i < n && k < MaxGeoTerms; i++ {
			buf[k] = pw * sinL
			pw *= s
			k++
		}
	}
	return k
}

// timeAngle converts a UTC day fraction to the Fourier angle, zero at 12 UTC.
func timeAngle(utc float64) float64 {
	return utc*2*math.Pi - math.Pi
}

func fourier(a *[MaxFourier]float32, terms int, T float64) float64 {
	v := float64(a[0])
	for h := 1; 2*h < terms; h++ {
		ht := float64(h) * T
		v += float64(a[2*h-1])*math.Cos(ht) + float64(a[2*h])*math.Sin(ht)
	}
	return v
}

// VariableMap evaluates a UTC and SSN dependent map at modified dip
// latitude modip and longitude lon (radians). utc is a day fraction.
// The result is linear in SSN between the 0 and 100 tables and saturates
// at MaxEffectiveSSN.
func (t *Table) VariableMap(kind VarMap, modip, lon, utc, ssn float64) float64 {
	if kind < 0 || int(kind) >= NumVarMaps {
		return 0
	}
	var g [MaxGeoTerms]float64
	n := geoTerms(t.Kim[kind], modip, lon, &g)
	T := timeAngle(utc)
	terms := fourierTerms[kind]
	var v0, v100 float64
	for k := 0; k < n; k++ {
		v0 += fourier(&t.Var[kind][0][k], terms, T) * g[k]
		v100 += fourier(&t.Var[kind][1][k], terms, T) * g[k]
	}
	r := mathutil.Clamp(ssn, 0, MaxEffectiveSSN)
	return v0 + (v100-v0)*r/100
}

// FixedMap evaluates a time-invariant map at geographic lat/lon.
func (t *Table) FixedMap(kind FixedMap, lat, lon float64) float64 {
	if kind < 0 || int(kind) >= NumFixedMaps {
		return 0
	}
	var g [MaxGeoTerms]float64
	n := geoTerms(t.FixedKim[kind], lat, lon, &g)
	v := 0.0
	for k := 0; k < n; k++ {
		v += float64(t.Fixed[kind][k]) * g[k]
	}
	return v
}

// IsLand reports whether the land-mass map marks the location as land.
func (t *Table) IsLand(lat, lon float64) bool {
	return t.FixedMap(LandMass, lat, lon) >= 0.5
}

// AtmosphericNoise1MHz evaluates the 1 MHz atmospheric noise map for a
// 4-hour local time block (0 = 00-04 LT).
func (t *Table) AtmosphericNoise1MHz(block int, lat, lon float64) float64 {
	block = ((block % NumTimeBlocks) + NumTimeBlocks) % NumTimeBlocks
	var g [MaxGeoTerms]float64
	n := geoTerms(t.AtmoKim, lat, lon, &g)
	v := 0.0
	for k := 0; k < n; k++ {
		v += float64(t.Atmo[block][k]) * g[k]
	}
	return v
}

// AtmosphericFreqTerms returns the frequency-dependence coefficients of a block.
func (t *Table) AtmosphericFreqTerms(block int) (c0, c1, c2 float64) {
	block = ((block % NumTimeBlocks) + NumTimeBlocks) % NumTimeBlocks
	a := t.AtmoFreq[block]
	return float64(a[0]), float64(a[1]), float64(a[2])
}

// AtmosphericDeciles returns the upper and lower decile deviations (dB) of
// atmospheric noise at frequency f MHz for a block.
func (t *Table) AtmosphericDeciles(block int, f float64) (upper, lower float64) {
	block = ((block % NumTimeBlocks) + NumTimeBlocks) % NumTimeBlocks
	d := t.AtmoDecile[block]
	u := mathutil.SafeLog10(f)
	upper = float64(d[0]) + float64(d[2])*u
	lower = float64(d[1]) + float64(d[3])*u
	if upper < 0 {
		upper = 0
	}
	if lower < 0 {
		lower = 0
	}
	return upper, lower
}
