package engine

import (
	"math"
	"sort"

	"hfprop/mathutil"
	"hfprop/noise"
)

const (
	// Modes whose reliabilities differ by no more than this are ranked by
	// hop count, then SNR.
	reliabilityTolerance = 0.05
	// Modes within this many dB of the best mode add to its power.
	combineWindowDB = 10.0

	signalPredictionError = 6.0
	noisePredictionError  = 4.0
)

// better reports whether a beats b: higher reliability unless the two are
// within tolerance, then fewer hops, then higher SNR.
func better(a, b ModeResult) bool {
	ra, rb := a.Signal.Reliability, b.Signal.Reliability
	if math.Abs(ra-rb) > reliabilityTolerance {
		return ra > rb
	}
	if a.Mode.Hops != b.Mode.Hops {
		return a.Mode.Hops < b.Mode.Hops
	}
	return a.Signal.SNR > b.Signal.SNR
}

// sortModes moves the best mode to the front and orders the rest by
// reliability, then SNR. The tolerance makes better intransitive, so it
// only picks the winner.
func sortModes(ms []ModeResult) {
	if len(ms) < 2 {
		return
	}
	best := 0
	for i := 1; i < len(ms); i++ {
		if better(ms[i], ms[best]) {
			best = i
		}
	}
	ms[0], ms[best] = ms[best], ms[0]
	rest := ms[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Signal.Reliability != rest[j].Signal.Reliability {
			return rest[i].Signal.Reliability > rest[j].Signal.Reliability
		}
		return rest[i].Signal.SNR > rest[j].Signal.SNR
	})
}

// combine sums, with random phases, the power of every mode within
// combineWindowDB of the best and recomputes the SNR and reliability of
// the total. The deciles stay those of the best mode.
func (c *call) combine(f float64, results []ModeResult, nz noise.Component) SignalInfo {
	best := results[0].Signal
	s := best
	total, pmuf := 0.0, 0.0
	for _, r := range results {
		if r.Signal.Power < best.Power-combineWindowDB {
			continue
		}
		total += mathutil.FromDB(r.Signal.Power - best.Power)
		pmuf = math.Max(pmuf, r.Signal.MufProbability)
	}
	s.Power = best.Power + mathutil.ToDB(total)
	s.Loss = c.txDBW - s.Power
	s.MufProbability = pmuf
	c.finishSignal(&s, f, nz)
	return s
}

// requiredSNR is the median SNR that meets the required reliability given
// the signal's decile spread.
func (c *call) requiredSNR(s SignalInfo) float64 {
	z := mathutil.NormalQuantile(c.params.RequiredReliability)
	decile := s.SNRLower
	if z < 0 {
		decile = s.SNRUpper
	}
	return c.params.RequiredSNR + z*mathutil.DecileToSigma(decile)
}

func (c *call) requiredPowerMargin(s SignalInfo) float64 {
	return c.requiredSNR(s) - s.SNR
}

// serviceProbability is the chance that at least one mode meets the
// required reliability once prediction errors in signal and noise are
// allowed for.
func (c *call) serviceProbability(results []ModeResult) float64 {
	sigma := mathutil.DecileToSigma(math.Hypot(signalPredictionError, noisePredictionError))
	miss := 1.0
	for _, r := range results {
		surplus := r.Signal.SNR - c.requiredSNR(r.Signal)
		p := mathutil.NormalCDF(surplus/sigma) * r.Signal.MufProbability
		miss *= 1 - p
	}
	return mathutil.Clamp(1-miss, 0, 1)
}

// multipathProbability is the largest chance that another mode arrives
// within the power tolerance of the best while delayed beyond the
// tolerated spread.
func (c *call) multipathProbability(results []ModeResult) float64 {
	if len(results) < 2 {
		return 0
	}
	best := results[0].Signal
	worst := 0.0
	for _, r := range results[1:] {
		if math.Abs(r.Signal.Delay-best.Delay) <= c.params.MultipathDelay {
			continue
		}
		floor := best.Power - c.params.MultipathTolerance
		p := mathutil.SplitNormalProb(r.Signal.Power, floor, r.Signal.PowerLower, r.Signal.PowerUpper) * r.Signal.MufProbability
		worst = math.Max(worst, p)
	}
	return worst
}
