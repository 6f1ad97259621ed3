package ionosphere

import (
	"math"

	"hfprop/coeffs"
	"hfprop/geo"
	"hfprop/mathutil"
)

const (
	HmE = 110.0
	YmE = 20.0

	nightFoE     = 0.6
	minFoF2      = 0.5
	f2OverE      = 1.1
	f1OverE      = 1.1
	f1UnderF2    = 0.9
	minHmF2      = 200.0
	maxHmF2      = 500.0
	minF2Spread  = 0.05
	maxF2Spread  = 0.5
	minAbsIndex  = 0.1
	minM3000     = 2.0
	maxM3000     = 4.5
	minHmYmRatio = 2.0
	maxHmYmRatio = 6.0
)

// Profile is the vertical ionosphere above one control point (or a blend
// of two). It is immutable after Compute or Blend returns.
type Profile struct {
	Location  geo.Point
	Zenith    float64
	LocalTime float64

	E, F1, F2 LayerInfo
	// Sporadic E critical frequencies, MHz.
	EsMedian, EsUpper, EsLower float64

	// F2Sigma is the decile spread of the F2 MUF as a fraction of the median.
	F2Sigma         float64
	AbsorptionIndex float64
	GyroFreq        float64
	DipAngle        float64
	MagLat          float64

	Density  []DensityPoint
	Ionogram []IonogramPoint
	// Oblique[a][k] is the oblique frequency reflected at ionogram point k
	// for takeoff angle Angle(a).
	Oblique [NumAngles][]float64

	segments [NumLayers][2]int
}

// Layer returns the parameters of layer l.
func (p *Profile) Layer(l Layer) LayerInfo {
	switch l {
	case E:
		return p.E
	case F1:
		return p.F1
	case F2:
		return p.F2
	}
	return LayerInfo{}
}

// Compute derives the layer parameters at cp from table and builds the
// density, ionogram and oblique tables. utc is a fraction of a day. Every
// layer sees the sunspot number the maps saturate at, so the foF2/foE
// ratio and the F2 peak height stop moving together above it.
func Compute(cp ControlPoint, table *coeffs.Table, ssn, utc float64) *Profile {
	ssn = EffectiveSSN(ssn)
	chi := cp.Solar.Zenith
	lat, lon := cp.Location.Lat, cp.Location.Lon
	modip := cp.Mag.Modip

	p := &Profile{
		Location:  cp.Location,
		Zenith:    chi,
		LocalTime: cp.Solar.LocalTime,
		GyroFreq:  cp.Mag.GyroFreq,
		DipAngle:  cp.Mag.Dip,
		MagLat:    cp.Mag.MagLat,
	}

	p.E = LayerInfo{Fo: ECritical(chi, ssn), Hm: HmE, Ym: YmE}

	foF2 := table.VariableMap(coeffs.F2, modip, lon, utc, ssn)
	foF2 = math.Max(foF2, minFoF2)
	m3000 := mathutil.Clamp(table.VariableMap(coeffs.M3000, modip, lon, utc, ssn), minM3000, maxM3000)
	ratio := mathutil.Clamp(table.FixedMap(coeffs.HmYmRatio, lat, lon), minHmYmRatio, maxHmYmRatio)
	p.F2 = LayerInfo{Fo: foF2}
	p.F2.Hm = F2PeakHeight(m3000, foF2, p.E.Fo)
	p.F2.Ym = p.F2.Hm / ratio
	p.F2Sigma = mathutil.Clamp(table.VariableMap(coeffs.F2Spread, modip, lon, utc, ssn), minF2Spread, maxF2Spread)

	f1Ratio := table.FixedMap(coeffs.F1Ratio, lat, lon)
	if f1 := F1Critical(chi, ssn, f1Ratio); f1 > 0 {
		hm := 165 + 0.6428*mathutil.RadToDeg(chi)
		p.F1 = LayerInfo{Fo: f1, Hm: hm, Ym: (hm - HmE) / 2}
	}

	p.EsMedian = math.Max(table.VariableMap(coeffs.EsMedian, modip, lon, utc, ssn), 0)
	p.EsUpper = math.Max(table.VariableMap(coeffs.EsUpper, modip, lon, utc, ssn), p.EsMedian)
	p.EsLower = mathutil.Clamp(table.VariableMap(coeffs.EsLower, modip, lon, utc, ssn), 0, p.EsMedian)

	p.AbsorptionIndex = AbsorptionIndex(chi, ssn)
	p.normalize()
	p.build()
	return p
}

// Blend returns a profile whose E region (and sporadic E) comes from eSide
// and whose F region comes from fSide.
func Blend(eSide, fSide *Profile) *Profile {
	p := &Profile{
		Location:        fSide.Location,
		Zenith:          fSide.Zenith,
		LocalTime:       fSide.LocalTime,
		E:               eSide.E,
		EsMedian:        eSide.EsMedian,
		EsUpper:         eSide.EsUpper,
		EsLower:         eSide.EsLower,
		AbsorptionIndex: eSide.AbsorptionIndex,
		F1:              fSide.F1,
		F2:              fSide.F2,
		F2Sigma:         fSide.F2Sigma,
		GyroFreq:        fSide.GyroFreq,
		DipAngle:        fSide.DipAngle,
		MagLat:          fSide.MagLat,
	}
	p.normalize()
	p.build()
	return p
}

// normalize enforces foE < foF1 < foF2 and keeps the layers stacked.
func (p *Profile) normalize() {
	if p.F2.Fo < f2OverE*p.E.Fo {
		p.F2.Fo = f2OverE * p.E.Fo
	}
	if maxYm := p.F2.Hm - p.E.Hm - 10; p.F2.Ym > maxYm {
		p.F2.Ym = maxYm
	}
	if p.F1.Present() {
		if p.F1.Fo <= f1OverE*p.E.Fo || p.F1.Fo >= f1UnderF2*p.F2.Fo || p.F1.Hm >= p.F2.Hm-10 {
			p.F1 = LayerInfo{}
		}
	}
}

// EffectiveSSN limits ssn to the range the coefficient maps cover.
func EffectiveSSN(ssn float64) float64 {
	return mathutil.Clamp(ssn, 0, coeffs.MaxEffectiveSSN)
}

// ECritical is the E layer critical frequency (MHz) for solar zenith angle
// chi and sunspot number ssn, with a night-time floor.
func ECritical(chi, ssn float64) float64 {
	day := 0.0
	if c := math.Cos(chi); c > 0 {
		day = 0.9 * math.Pow((180+1.44*ssn)*c, 0.25)
	}
	return math.Pow(math.Pow(day, 4)+math.Pow(nightFoE, 4), 0.25)
}

// F1Critical returns the F1 critical frequency (MHz), zero at night.
func F1Critical(chi, ssn, ratio float64) float64 {
	c := math.Cos(chi)
	if c <= 0 || ratio <= 0 {
		return 0
	}
	return ratio * (4.3 + 0.01*ssn) * math.Pow(c, 0.2)
}

// F2PeakHeight is the Bradley-Dudeney height of the F2 peak (km) from the
// M(3000)F2 factor and the foF2/foE ratio.
func F2PeakHeight(m3000, foF2, foE float64) float64 {
	x := math.Max(mathutil.SafeDiv(foF2, foE), 1.7)
	dm := 0.253/(x-1.215) - 0.012
	hm := 1490/(m3000+dm) - 176
	return mathutil.Clamp(hm, minHmF2, maxHmF2)
}

// AbsorptionIndex is the solar-controlled absorption index for zenith
// angle chi, floored for night-time.
func AbsorptionIndex(chi, ssn float64) float64 {
	day := 0.0
	if c := math.Cos(0.881 * chi); c > 0 {
		day = math.Pow(c, 1.3)
	}
	return (1 + 0.0037*ssn) * math.Max(day, minAbsIndex)
}
