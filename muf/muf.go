// Package muf computes per-layer maximum usable frequencies for a circuit
// and finds the ray modes (reflectrix) that join the path ends at a given
// operating frequency.
package muf

import (
	"math"

	"hfprop/geo"
	"hfprop/ionosphere"
	"hfprop/mathutil"
)

const (
	FotFactor = 0.85
	HpfFactor = 0.90

	maxIterations  = 60
	toleranceKm    = 1.0
	indexTolerance = 1e-3
	maxHops        = 20

	eSpread  = 0.10
	f1Spread = 0.10
)

// Info is the MUF of one layer over the circuit.
type Info struct {
	Layer ionosphere.Layer
	Muf   float64
	Fot   float64
	Hpf   float64
	// Lower and upper decile deviations of the MUF, MHz.
	SigmaLo float64
	SigmaHi float64
	Hops    int
	Ref     ionosphere.Reflection
	// Control is the index of the profile that sets the circuit value.
	Control int
}

// Present reports whether the layer supports the circuit at all.
func (i Info) Present() bool {
	return i.Muf > 0
}

// Circuit holds the MUF of each layer and the layer that limits the path.
type Circuit struct {
	Layers   [ionosphere.NumLayers]Info
	Muf      float64
	Fot      float64
	Hpf      float64
	Limiting ionosphere.Layer
}

// MinHops is the smallest hop count of any supporting layer, at least 1.
func (c Circuit) MinHops() int {
	n := 0
	for _, info := range c.Layers {
		if info.Present() && (n == 0 || info.Hops < n) {
			n = info.Hops
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// LayerMuf returns the oblique MUF of layer l over dist (radians) using the
// fewest hops whose takeoff angle stays at or above minAngle. For each hop
// count the geometry of every ionogram point is fixed by the hop length, so
// the MUF is the largest secant-scaled vertical frequency over the layer,
// refined between ionogram points by a bounded golden-section search.
func LayerMuf(p *ionosphere.Profile, l ionosphere.Layer, dist, minAngle float64) (Info, bool) {
	if !p.Layer(l).Present() {
		return Info{}, false
	}
	start, end, ok := p.Segment(l)
	if !ok {
		return Info{}, false
	}
	for n := 1; n <= maxHops; n++ {
		target := dist / float64(n)
		best, fbest := -1, 0.0
		for k := start; k < end; k++ {
			if f := obliqueAt(p, float64(k), target, minAngle); f > fbest {
				best, fbest = k, f
			}
		}
		if best < 0 {
			continue
		}
		s, fmax := refineMax(p, best, start, end, target, minAngle)
		if fmax < fbest {
			s, fmax = float64(best), fbest
		}
		pt := pointAt(p, s)
		elev := geo.ElevationFor(target, pt.VirtualHeight)
		info := Info{
			Layer: l,
			Muf:   fmax,
			Hops:  n,
			Ref: ionosphere.Reflection{
				Layer:         l,
				Elevation:     elev,
				TrueHeight:    pt.TrueHeight,
				VirtualHeight: pt.VirtualHeight,
				VertFreq:      pt.Freq,
				HopDistance:   target,
			},
		}
		spread := layerSpread(p, l)
		info.SigmaLo = spread * fmax
		info.SigmaHi = spread * fmax
		info.Fot = FotFactor * fmax
		info.Hpf = HpfFactor * fmax
		return info, true
	}
	return Info{}, false
}

// pointAt interpolates the ionogram at fractional index s.
func pointAt(p *ionosphere.Profile, s float64) ionosphere.IonogramPoint {
	k := int(math.Floor(s))
	if k >= len(p.Ionogram)-1 {
		return p.Ionogram[len(p.Ionogram)-1]
	}
	if k < 0 {
		return p.Ionogram[0]
	}
	t := s - float64(k)
	a, b := p.Ionogram[k], p.Ionogram[k+1]
	return ionosphere.IonogramPoint{
		Freq:          mathutil.Lerp(a.Freq, b.Freq, t),
		TrueHeight:    mathutil.Lerp(a.TrueHeight, b.TrueHeight, t),
		VirtualHeight: mathutil.Lerp(a.VirtualHeight, b.VirtualHeight, t),
		Layer:         a.Layer,
	}
}

// obliqueAt is the frequency reflected at fractional ionogram index s for a
// hop of length target, or zero when the takeoff angle is below minAngle.
func obliqueAt(p *ionosphere.Profile, s, target, minAngle float64) float64 {
	pt := pointAt(p, s)
	elev := geo.ElevationFor(target, pt.VirtualHeight)
	if elev < minAngle {
		return 0
	}
	return ionosphere.ObliqueFreq(pt.Freq, elev, pt.VirtualHeight)
}

// refineMax maximizes obliqueAt over the neighbours of ionogram index k.
func refineMax(p *ionosphere.Profile, k, start, end int, target, minAngle float64) (float64, float64) {
	const invPhi = 0.6180339887498949
	lo := math.Max(float64(k-1), float64(start))
	hi := math.Min(float64(k+1), float64(end-1))
	a := hi - invPhi*(hi-lo)
	b := lo + invPhi*(hi-lo)
	fa := obliqueAt(p, a, target, minAngle)
	fb := obliqueAt(p, b, target, minAngle)
	for i := 0; i < maxIterations && hi-lo > indexTolerance; i++ {
		if fa < fb {
			lo, a, fa = a, b, fb
			b = lo + invPhi*(hi-lo)
			fb = obliqueAt(p, b, target, minAngle)
		} else {
			hi, b, fb = b, a, fa
			a = hi - invPhi*(hi-lo)
			fa = obliqueAt(p, a, target, minAngle)
		}
	}
	s := (lo + hi) / 2
	return s, obliqueAt(p, s, target, minAngle)
}

func layerSpread(p *ionosphere.Profile, l ionosphere.Layer) float64 {
	switch l {
	case ionosphere.E:
		return eSpread
	case ionosphere.F1:
		return f1Spread
	}
	return p.F2Sigma
}

// ComputeCircuit evaluates every layer on every profile. A layer's circuit
// MUF is its lowest value over the profiles. The limiting layer is the one
// needing the fewest hops, ties going to the higher MUF.
func ComputeCircuit(profiles []*ionosphere.Profile, path *geo.Path, minAngle float64) Circuit {
	var c Circuit
	found := false
	for _, l := range ionosphere.Layers() {
		var best Info
		ok := false
		for i, p := range profiles {
			info, present := LayerMuf(p, l, path.Distance, minAngle)
			if !present {
				ok = false
				break
			}
			if !ok || info.Muf < best.Muf {
				best = info
				best.Control = i
			}
			ok = true
		}
		if !ok {
			continue
		}
		c.Layers[l] = best
		if !found || best.Hops < c.Layers[c.Limiting].Hops ||
			(best.Hops == c.Layers[c.Limiting].Hops && best.Muf > c.Layers[c.Limiting].Muf) {
			c.Limiting = l
			found = true
		}
	}
	if found {
		lim := c.Layers[c.Limiting]
		c.Muf, c.Fot, c.Hpf = lim.Muf, lim.Fot, lim.Hpf
	}
	return c
}

// Probability returns the probability that the layer's MUF on a given day
// is at or above f.
func Probability(f float64, info Info) float64 {
	if !info.Present() {
		return 0
	}
	return mathutil.SplitNormalProb(info.Muf, f, info.SigmaLo, info.SigmaHi)
}
