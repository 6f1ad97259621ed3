package muf

import (
	"fmt"
	"math"
	"sort"

	"hfprop/geo"
	"hfprop/ionosphere"
)

const (
	// modeToleranceKm rejects bisection results that converged onto a jump
	// in the hop-distance curve instead of a root.
	modeToleranceKm = 25.0
	// Roots of one layer closer than this in elevation are the same ray.
	sameRayRad = 1e-4
	// edgeIterations bisects the angle where rays start to penetrate.
	edgeIterations = 30
)

// Mode is one ray path: a reflection repeated over Hops hops.
type Mode struct {
	ionosphere.Reflection
	Hops int
	// OverMuf marks a mode synthesized above the layer MUF.
	OverMuf bool
}

// Name is the conventional mode label, e.g. "1F2" or "2E".
func (m Mode) Name() string {
	return fmt.Sprintf("%d%s", m.Hops, m.Layer)
}

type sample struct {
	ref ionosphere.Reflection
	ok  bool
}

// Reflectrix holds the ray family of one operating frequency over one profile.
type Reflectrix struct {
	Freq     float64
	MinAngle float64
	// SkipDistance and MaxDistance bound the single-hop ground range of
	// reflected rays, radians. Both are zero when every ray penetrates.
	SkipDistance float64
	MaxDistance  float64

	profile *ionosphere.Profile
	samples []sample
}

// NewReflectrix traces rays at minAngle and at every tabulated angle above
// it. Where a reflecting angle is followed by a penetrating one, the last
// reflecting angle is located by bisection and traced too: the high-angle
// ray lives just below it.
func NewReflectrix(p *ionosphere.Profile, f, minAngle float64) *Reflectrix {
	r := &Reflectrix{Freq: f, MinAngle: minAngle, profile: p}
	first, ok := p.ReflectAt(f, minAngle)
	r.samples = append(r.samples, sample{ref: first, ok: ok})
	prevElev := minAngle
	for a := 0; a < ionosphere.NumAngles; a++ {
		elev := ionosphere.Angle(a)
		if elev <= minAngle {
			continue
		}
		ref, ok := p.ReflectAtAngle(f, a)
		if last := r.samples[len(r.samples)-1]; last.ok && !ok {
			if edge, found := r.penetrationEdge(prevElev, elev); found {
				r.samples = append(r.samples, sample{ref: edge, ok: true})
			}
		}
		r.samples = append(r.samples, sample{ref: ref, ok: ok})
		prevElev = elev
	}
	skip := math.Inf(1)
	for _, s := range r.samples {
		if !s.ok {
			continue
		}
		skip = math.Min(skip, s.ref.HopDistance)
		r.MaxDistance = math.Max(r.MaxDistance, s.ref.HopDistance)
	}
	if !math.IsInf(skip, 1) {
		r.SkipDistance = skip
	}
	return r
}

// penetrationEdge returns the highest reflecting ray between lo, which
// reflects, and hi, which penetrates.
func (r *Reflectrix) penetrationEdge(lo, hi float64) (ionosphere.Reflection, bool) {
	var edge ionosphere.Reflection
	found := false
	for i := 0; i < edgeIterations; i++ {
		mid := (lo + hi) / 2
		if ref, ok := r.profile.ReflectAt(r.Freq, mid); ok {
			edge, found, lo = ref, true, mid
		} else {
			hi = mid
		}
	}
	return edge, found
}

// Reflects reports whether any traced ray returns to the ground.
func (r *Reflectrix) Reflects() bool {
	return r.MaxDistance > 0
}

// FindModes returns every mode that covers dist (radians) in exactly hops
// hops, ordered by elevation. A layer can contribute a low and a high
// (Pedersen) ray.
func (r *Reflectrix) FindModes(dist float64, hops int) []Mode {
	if hops < 1 || !r.Reflects() {
		return nil
	}
	target := dist / float64(hops)
	var modes []Mode
	add := func(ref ionosphere.Reflection) {
		for _, m := range modes {
			if m.Layer == ref.Layer && math.Abs(m.Elevation-ref.Elevation) < sameRayRad {
				return
			}
		}
		modes = append(modes, Mode{Reflection: ref, Hops: hops})
	}
	for i := 1; i < len(r.samples); i++ {
		a, b := r.samples[i-1], r.samples[i]
		if !a.ok || !b.ok {
			continue
		}
		ga := a.ref.HopDistance - target
		gb := b.ref.HopDistance - target
		if ga == 0 || gb == 0 {
			if ga == 0 {
				add(a.ref)
			}
			if gb == 0 {
				add(b.ref)
			}
			continue
		}
		if ga*gb > 0 {
			continue
		}
		if ref, ok := r.refine(a.ref, b.ref, target); ok {
			add(ref)
		}
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].Elevation < modes[j].Elevation })
	return modes
}

// refine bisects between two bracketing rays until the hop matches target.
func (r *Reflectrix) refine(a, b ionosphere.Reflection, target float64) (ionosphere.Reflection, bool) {
	lo, hi := a, b
	loSign := lo.HopDistance > target
	best := a
	for i := 0; i < maxIterations; i++ {
		mid, ok := r.profile.ReflectAt(r.Freq, (lo.Elevation+hi.Elevation)/2)
		if !ok {
			return ionosphere.Reflection{}, false
		}
		best = mid
		if math.Abs(mid.HopDistance-target)*geo.EarthRadiusKm < toleranceKm {
			break
		}
		if (mid.HopDistance > target) == loSign {
			lo = mid
		} else {
			hi = mid
		}
	}
	if math.Abs(best.HopDistance-target)*geo.EarthRadiusKm > modeToleranceKm {
		return ionosphere.Reflection{}, false
	}
	return best, true
}

// OverMufModes adds one over-the-MUF mode for each layer that has a MUF
// below f and no ordinary mode among found. These modes reuse the MUF
// geometry; their weight comes from the MUF probability.
func OverMufModes(c Circuit, f float64, found []Mode) []Mode {
	var have [ionosphere.NumLayers]bool
	for _, m := range found {
		have[m.Layer] = true
	}
	var modes []Mode
	for _, info := range c.Layers {
		if !info.Present() || have[info.Layer] || f <= info.Muf {
			continue
		}
		modes = append(modes, Mode{Reflection: info.Ref, Hops: info.Hops, OverMuf: true})
	}
	return modes
}
