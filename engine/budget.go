package engine

import (
	"math"
	"math/cmplx"

	"hfprop/antenna"
	"hfprop/geo"
	"hfprop/ionosphere"
	"hfprop/mathutil"
	"hfprop/muf"
	"hfprop/noise"
)

const (
	lightKmPerMs = 299.792458

	// Non-deviative absorption is evaluated where the ray crosses 100 km.
	absorptionHeight = 100.0
	absorptionScale  = 677.2
	absorptionExp    = 1.98
	absorptionOffset = 10.2

	// E-mode absorption rises as f approaches the E MUF; the extra loss
	// ramps from adxOnset*MUF up to adxMaxDB per hop at the MUF.
	adxOnset = 0.6
	adxMaxDB = 5.0

	deviationPerKm = 0.01

	maxObscurationDB = 30.0

	// High-latitude excess loss ramps from eslOnsetDeg to eslFullDeg of
	// magnetic latitude.
	eslOnsetDeg = 45.0
	eslFullDeg  = 70.0
	eslMaxDB    = 8.0

	signalUpperDecile = 5.0
	signalLowerDecile = 8.0

	// An over-the-MUF mode loses overMufDB per unit of f/MUF above 1, up
	// to maxOverMufDB.
	overMufDB    = 300.0
	maxOverMufDB = 250.0
)

// budget evaluates the signal of mode m at f. info is the MUF of the
// mode's layer over the circuit; an absent info carries no MUF penalty.
func (c *call) budget(m muf.Mode, info muf.Info, f float64, tx, rx antenna.Antenna, nz noise.Component) SignalInfo {
	var s SignalInfo
	n := float64(m.Hops)
	elev := m.Elevation
	hv := m.VirtualHeight

	pathKm := 2 * n * geo.SlantRange(elev, hv)
	s.Delay = pathKm / lightKmPerMs
	s.FreeSpace = 32.45 + 20*mathutil.SafeLog10(f) + 20*mathutil.SafeLog10(pathKm)

	sec := mathutil.ClampedSecant(geo.CosIncidence(elev, absorptionHeight))
	perHop := absorptionScale * c.avg.absorption * sec / (math.Pow(f+c.avg.gyro, absorptionExp) + absorptionOffset)
	if m.Layer == ionosphere.E {
		perHop += c.adx(f)
	}
	s.Absorption = n * perHop
	s.Deviation = n * deviationPerKm * math.Max(hv-m.TrueHeight, 0)

	for k := 1; k < m.Hops; k++ {
		d := c.path.Distance * float64(k) / n
		s.Ground += groundLoss(f, elev, groundAt(c.cps, d))
	}
	if m.Layer != ionosphere.E {
		s.Obscuration = n * obscuration(f, elev, c.avg.esMedian)
	}
	s.Auroral = c.esl

	s.MufProbability = 1
	if info.Present() {
		s.MufProbability = muf.Probability(f, info)
		if m.OverMuf {
			s.OverMufLoss = overMufLoss(f, info.Muf)
		}
	}

	s.TxGain = tx.Gain(elev)
	s.RxGain = rx.Gain(elev)
	s.Loss = s.FreeSpace + s.Absorption + s.Deviation + s.Ground + s.Obscuration +
		s.Auroral + s.OverMufLoss - s.TxGain - s.RxGain

	s.Power = c.txDBW - s.Loss
	s.PowerUpper = signalUpperDecile
	s.PowerLower = signalLowerDecile
	c.finishSignal(&s, f, nz)
	return s
}

// finishSignal fills the field strength, SNR and reliability from Power.
// The MUF probability enters once, as the chance the layer is there at all;
// the SNR floor is NoSignalSNR.
func (c *call) finishSignal(s *SignalInfo, f float64, nz noise.Component) {
	s.FieldStrength = s.Power + 20*mathutil.SafeLog10(f) + 107.2 - s.RxGain
	s.SNR = math.Max(s.Power-nz.Median, NoSignalSNR)
	s.SNRUpper = math.Hypot(s.PowerUpper, nz.Lower)
	s.SNRLower = math.Hypot(s.PowerLower, nz.Upper)
	s.Reliability = reliability(s.SNR, c.params.RequiredSNR, s.SNRLower, s.SNRUpper) * s.MufProbability
}

// reliability is the probability that the SNR meets required, given the
// median SNR and its decile deviations.
func reliability(snr, required, lower, upper float64) float64 {
	return mathutil.SplitNormalProb(snr, required, lower, upper)
}

// overMufLoss is the loss of a ray forced through at f over a layer whose
// MUF is mufMHz.
func overMufLoss(f, mufMHz float64) float64 {
	if mufMHz <= 0 || f <= mufMHz {
		return 0
	}
	return math.Min(overMufDB*(f/mufMHz-1), maxOverMufDB)
}

// adx is the extra E-mode absorption per hop near the E MUF.
func (c *call) adx(f float64) float64 {
	if c.eMuf <= 0 {
		return 0
	}
	x := (f/c.eMuf - adxOnset) / (1 - adxOnset)
	return adxMaxDB * mathutil.Clamp(x, 0, 1)
}

// excessLoss is the high-latitude loss for a path at the given mean
// magnetic latitude.
func excessLoss(magLatDeg float64) float64 {
	t := (magLatDeg - eslOnsetDeg) / (eslFullDeg - eslOnsetDeg)
	return eslMaxDB * mathutil.Clamp(t, 0, 1)
}

// obscuration is the loss per hop of an F-region ray passing through a
// sporadic E layer of critical frequency foEs.
func obscuration(f, elev, foEs float64) float64 {
	if foEs <= 0 {
		return 0
	}
	fEs := foEs * mathutil.ClampedSecant(geo.CosIncidence(elev, ionosphere.HmE))
	x := fEs / f
	if x >= 1 {
		return maxObscurationDB
	}
	return math.Min(-10*mathutil.SafeLog10(1-x*x), maxObscurationDB)
}

// groundLoss is the Fresnel reflection loss, averaged over horizontal and
// vertical polarization, at grazing angle elev over ground g.
func groundLoss(f, elev float64, g ionosphere.Ground) float64 {
	lambda := lightKmPerMs / f // metres
	eps := complex(g.Permittivity, -60*lambda*g.Conductivity)
	sin := complex(math.Sin(elev), 0)
	cos := math.Cos(elev)
	root := cmplx.Sqrt(eps - complex(cos*cos, 0))
	rh := (sin - root) / (sin + root)
	rv := (eps*sin - root) / (eps*sin + root)
	ah, av := cmplx.Abs(rh), cmplx.Abs(rv)
	return -10 * mathutil.SafeLog10((ah*ah+av*av)/2)
}
