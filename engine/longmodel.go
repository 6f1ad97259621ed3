package engine

import (
	"hfprop/antenna"
	"hfprop/ionosphere"
	"hfprop/mathutil"
	"hfprop/muf"
	"hfprop/noise"
)

const (
	longStartKm = 7000.0
	longFullKm  = 10000.0
)

// longWeight is the share of the long-distance model for a circuit of km.
func longWeight(km float64) float64 {
	if km <= longStartKm {
		return 0
	}
	return mathutil.Smoothstep((km - longStartKm) / (longFullKm - longStartKm))
}

// longModel predicts a long circuit as one F2 mode controlled by the
// profiles nearest the two ends: the lower of their F2 MUFs sets the hop
// geometry and the MUF probability.
func (c *call) longModel(f float64, tx, rx antenna.Antenna, nz noise.Distribution) (Prediction, bool) {
	ends := []*ionosphere.Profile{c.profiles[0], c.profiles[len(c.profiles)-1]}
	var lim muf.Info
	for i, p := range ends {
		info, ok := muf.LayerMuf(p, ionosphere.F2, c.path.Distance, c.params.MinTakeoff)
		if !ok {
			return Prediction{}, false
		}
		if i == 0 || info.Muf < lim.Muf {
			lim = info
		}
	}
	mode := muf.Mode{Reflection: lim.Ref, Hops: lim.Hops, OverMuf: f > lim.Muf}
	res := ModeResult{Mode: mode, Signal: c.budget(mode, lim, f, tx, rx, nz.Combined)}
	return c.reduce(f, []ModeResult{res}, nz), true
}

// blend mixes the short and long model predictions in the power domain
// with weight w on the long model. Mode labels come from the dominant side.
func blend(short, long Prediction, w float64, c *call) Prediction {
	dom := short
	if w >= 0.5 || short.NoPropagation {
		dom = long
	}
	out := dom
	out.Modes = append(append([]ModeResult(nil), short.Modes...), long.Modes...)

	s := dom.Signal
	s.Power = mathutil.ToDB((1-w)*linearPower(short) + w*linearPower(long))
	s.Loss = c.txDBW - s.Power
	s.MufProbability = mathutil.Lerp(short.Signal.MufProbability, long.Signal.MufProbability, w)
	c.finishSignal(&s, out.Freq, out.Noise.Combined)
	out.Signal = s

	out.RequiredPowerMargin = c.requiredPowerMargin(s)
	out.ServiceProbability = mathutil.Lerp(short.ServiceProbability, long.ServiceProbability, w)
	out.MultipathProbability = mathutil.Lerp(short.MultipathProbability, long.MultipathProbability, w)
	out.LongWeight = w
	out.NoPropagation = short.NoPropagation && long.NoPropagation
	return out
}

func linearPower(p Prediction) float64 {
	if p.NoPropagation {
		return 0
	}
	return mathutil.FromDB(p.Signal.Power)
}
