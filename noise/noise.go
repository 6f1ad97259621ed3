// Package noise models the receiver noise environment: atmospheric noise
// from the coefficient maps, galactic noise, and man-made noise, combined
// in the power domain with their day-to-day decile spreads.
package noise

import (
	"math"

	"hfprop/coeffs"
	"hfprop/geo"
	"hfprop/mathutil"
)

const (
	// KTB0 converts a noise figure above kTb into dBW/Hz at 288 K.
	KTB0 = 204.0

	galacticDecile = 2.0
	manMadeUpper   = 9.7
	manMadeLower   = 6.0
	// caruanaThreshold is the decile above which the moment combination
	// gives way to a power-weighted decile.
	caruanaThreshold = 12.0
)

// Component is a noise power median (dBW/Hz) with upper and lower decile
// deviations (dB). A median of -Inf means no power.
type Component struct {
	Median float64
	Upper  float64
	Lower  float64
}

// Zero is the absence of noise.
var Zero = Component{Median: math.Inf(-1)}

func (c Component) present() bool {
	return !math.IsInf(c.Median, -1) && !math.IsNaN(c.Median)
}

// Distribution breaks the total noise into its sources.
type Distribution struct {
	Atmospheric Component
	Galactic    Component
	ManMade     Component
	Combined    Component
}

// Model evaluates noise for one month of coefficients. ManMade3MHz is the
// man-made noise reference level at 3 MHz in dBW/Hz (e.g. -145 residential).
type Model struct {
	Table       *coeffs.Table
	ManMade3MHz float64
}

// Compute returns the noise at receiver location p for frequency f (MHz).
// localTime is the receiver local time as a day fraction and foF2 the F2
// critical frequency overhead, which gates galactic noise.
func (m Model) Compute(p geo.Point, localTime, f, foF2 float64) Distribution {
	d := Distribution{
		Atmospheric: m.Atmospheric(p, localTime, f),
		Galactic:    Galactic(f, foF2),
		ManMade:     ManMade(f, m.ManMade3MHz),
	}
	d.Combined = Combine(d.Atmospheric, d.Galactic, d.ManMade)
	return d
}

// TimeBlock maps a local time day fraction to a 4-hour block; midnight,
// represented as 1.0, falls in block 0.
func TimeBlock(localTime float64) int {
	b := int(math.Floor(localTime * 24 / 4))
	return ((b % coeffs.NumTimeBlocks) + coeffs.NumTimeBlocks) % coeffs.NumTimeBlocks
}

// Atmospheric evaluates the atmospheric noise map and its frequency law.
func (m Model) Atmospheric(p geo.Point, localTime, f float64) Component {
	if m.Table == nil || f <= 0 {
		return Zero
	}
	block := TimeBlock(localTime)
	fam := m.Table.AtmosphericNoise1MHz(block, p.Lat, p.Lon)
	c0, c1, c2 := m.Table.AtmosphericFreqTerms(block)
	u := mathutil.SafeLog10(f)
	fa := fam + c0 + c1*u + c2*u*u
	upper, lower := m.Table.AtmosphericDeciles(block, f)
	return Component{Median: fa - KTB0, Upper: upper, Lower: lower}
}

// Galactic noise reaches the ground only when f exceeds foF2.
func Galactic(f, foF2 float64) Component {
	if f <= foF2 || f <= 0 {
		return Zero
	}
	fa := 52 - 23*math.Log10(f)
	return Component{Median: fa - KTB0, Upper: galacticDecile, Lower: galacticDecile}
}

// ManMade scales the 3 MHz reference level with a -27.7 dB/decade slope.
func ManMade(f, ref3MHz float64) Component {
	if f <= 0 || math.IsInf(ref3MHz, -1) {
		return Zero
	}
	fam := ref3MHz + KTB0
	fa := fam - 27.7*math.Log10(f/3)
	return Component{Median: fa - KTB0, Upper: manMadeUpper, Lower: manMadeLower}
}

// Combine adds noise components in the power domain. The median is the sum
// of the component medians as powers. Each decile comes from matching the
// first two moments of the summed log-normal powers, unless some component
// decile exceeds 12 dB, in which case the deciles are weighted by power
// (Caruana). With no power at all the result is Zero, never NaN.
func Combine(components ...Component) Component {
	var present []Component
	ref := math.Inf(-1)
	for _, c := range components {
		if c.present() {
			present = append(present, c)
			ref = math.Max(ref, c.Median)
		}
	}
	if len(present) == 0 {
		return Zero
	}
	if len(present) == 1 {
		return present[0]
	}
	// Powers relative to the strongest component keep the sums in range.
	weights := make([]float64, len(present))
	total := 0.0
	wide := false
	for i, c := range present {
		weights[i] = mathutil.FromDB(c.Median - ref)
		total += weights[i]
		if c.Upper > caruanaThreshold || c.Lower > caruanaThreshold {
			wide = true
		}
	}
	out := Component{Median: ref + mathutil.ToDB(total)}
	if wide {
		for i, c := range present {
			w := weights[i] / total
			out.Upper += w * c.Upper
			out.Lower += w * c.Lower
		}
		return out
	}
	out.Upper = momentDecile(present, weights, func(c Component) float64 { return c.Upper })
	out.Lower = momentDecile(present, weights, func(c Component) float64 { return c.Lower })
	return out
}

// momentDecile sums log-normal powers by mean and variance and returns the
// decile of the resulting log-normal, in dB.
func momentDecile(cs []Component, weights []float64, decile func(Component) float64) float64 {
	var mean, variance float64
	for i, c := range cs {
		s := mathutil.DecileToSigma(decile(c)) / mathutil.DBPerNeper
		m := weights[i] * math.Exp(s*s/2)
		mean += m
		variance += m * m * math.Expm1(s*s)
	}
	if mean <= 0 {
		return 0
	}
	sigma := math.Sqrt(math.Log1p(variance / (mean * mean)))
	return sigma * mathutil.DBPerNeper * mathutil.DecileFactor
}
