package ionosphere

import (
	"math"
	"sort"

	"hfprop/geo"
	"hfprop/mathutil"
)

const (
	// MaxIonogramPoints bounds the ionogram length.
	MaxIonogramPoints = 31
	densityStepKm     = 1.0
	maxVirtualHeight  = 800.0
	// topFraction keeps the last sample of each layer below its critical
	// frequency, where the virtual height is unbounded.
	topFraction = 0.995
	ePoints     = 8
	f1Points    = 8
)

// DensityPoint is the squared plasma frequency (MHz^2) at a true height (km).
type DensityPoint struct {
	Height float64
	FpSq   float64
}

// IonogramPoint is one vertical-incidence sounding sample.
type IonogramPoint struct {
	Freq          float64
	TrueHeight    float64
	VirtualHeight float64
	Layer         Layer
}

func (p *Profile) build() {
	p.buildDensity()
	p.buildIonogram()
	p.buildOblique()
}

// layerFpSq is the bottomside parabola of layer l at height h, held at its
// peak value above hm so that the stacked profile is non-decreasing.
func layerFpSq(l LayerInfo, h float64) float64 {
	if !l.Present() || l.Ym <= 0 {
		return 0
	}
	peak := l.Fo * l.Fo
	if h >= l.Hm {
		return peak
	}
	z := (l.Hm - h) / l.Ym
	if z >= 1 {
		return 0
	}
	return peak * (1 - z*z)
}

func (p *Profile) bottom() float64 {
	return p.E.Hm - p.E.Ym
}

func (p *Profile) buildDensity() {
	h0 := p.bottom()
	top := p.F2.Hm
	n := int(math.Ceil((top-h0)/densityStepKm)) + 1
	eps := 1e-6 * p.F2.Fo * p.F2.Fo
	p.Density = make([]DensityPoint, n)
	prev := -eps
	for i := 0; i < n; i++ {
		h := math.Min(h0+float64(i)*densityStepKm, top)
		x := math.Max(layerFpSq(p.E, h), math.Max(layerFpSq(p.F1, h), layerFpSq(p.F2, h)))
		if x < prev+eps {
			x = prev + eps
		}
		p.Density[i] = DensityPoint{Height: h, FpSq: x}
		prev = x
	}
}

// TrueHeight returns the height (km) at which the plasma frequency reaches f.
// ok is false when f exceeds the profile peak.
func (p *Profile) TrueHeight(f float64) (h float64, ok bool) {
	d := p.Density
	if len(d) == 0 {
		return 0, false
	}
	fsq := f * f
	i := sort.Search(len(d), func(i int) bool { return d[i].FpSq >= fsq })
	if i == len(d) {
		return d[len(d)-1].Height, false
	}
	if i == 0 {
		return d[0].Height, true
	}
	a, b := d[i-1], d[i]
	t := mathutil.SafeDiv(fsq-a.FpSq, b.FpSq-a.FpSq)
	return mathutil.Lerp(a.Height, b.Height, t), true
}

// VirtualHeight integrates the group refractive index from the bottom of
// the profile to the reflection height of f. The density is piecewise
// linear so each slab integrates in closed form.
func (p *Profile) VirtualHeight(f float64) float64 {
	d := p.Density
	if len(d) == 0 || f <= 0 {
		return p.bottom()
	}
	fsq := f * f
	hv := d[0].Height
	for i := 1; i < len(d); i++ {
		a, b := d[i-1], d[i]
		y1 := a.FpSq / fsq
		if y1 >= 1 {
			break
		}
		dh := b.Height - a.Height
		y2 := b.FpSq / fsq
		if y2 >= 1 {
			// Partial slab up to the reflection point, where Y = 1.
			frac := mathutil.SafeDiv(1-y1, y2-y1)
			dh *= frac
			y2 = 1
		}
		dy := y2 - y1
		if dy < 1e-12 {
			hv += dh / math.Sqrt(1-y1)
		} else {
			hv += dh / dy * 2 * (math.Sqrt(1-y1) - mathutil.SafeSqrt(1-y2))
		}
		if hv > maxVirtualHeight || y2 >= 1 {
			break
		}
	}
	return math.Min(hv, maxVirtualHeight)
}

type segment struct {
	layer  Layer
	lo, hi float64
	n      int
}

func (p *Profile) segmentsPlan() []segment {
	var segs []segment
	segs = append(segs, segment{layer: E, lo: 0, hi: p.E.Fo, n: ePoints})
	lo := p.E.Fo
	if p.F1.Present() {
		segs = append(segs, segment{layer: F1, lo: lo, hi: p.F1.Fo, n: f1Points})
		lo = p.F1.Fo
	}
	used := 0
	for _, s := range segs {
		used += s.n
	}
	segs = append(segs, segment{layer: F2, lo: lo, hi: p.F2.Fo, n: MaxIonogramPoints - used})
	return segs
}

func (p *Profile) buildIonogram() {
	p.Ionogram = p.Ionogram[:0]
	for l := range p.segments {
		p.segments[l] = [2]int{-1, -1}
	}
	for _, s := range p.segmentsPlan() {
		start := len(p.Ionogram)
		for k := 1; k <= s.n; k++ {
			frac := topFraction * math.Sin(math.Pi/2*float64(k)/float64(s.n))
			f := s.lo + (s.hi-s.lo)*frac
			if len(p.Ionogram) > 0 && f <= p.Ionogram[len(p.Ionogram)-1].Freq {
				continue
			}
			ht, ok := p.TrueHeight(f)
			if !ok {
				continue
			}
			hv := math.Max(p.VirtualHeight(f), ht)
			p.Ionogram = append(p.Ionogram, IonogramPoint{Freq: f, TrueHeight: ht, VirtualHeight: hv, Layer: s.layer})
		}
		if len(p.Ionogram) > start {
			p.segments[s.layer] = [2]int{start, len(p.Ionogram)}
		}
	}
}

func (p *Profile) buildOblique() {
	for a := 0; a < NumAngles; a++ {
		elev := Angle(a)
		row := make([]float64, len(p.Ionogram))
		for k, pt := range p.Ionogram {
			row[k] = ObliqueFreq(pt.Freq, elev, pt.VirtualHeight)
		}
		p.Oblique[a] = row
	}
}

// ObliqueFreq is the secant-law oblique frequency for a vertical frequency
// fv reflected at virtual height hv for takeoff angle elev.
func ObliqueFreq(fv, elev, hv float64) float64 {
	return fv * mathutil.ClampedSecant(geo.CosIncidence(elev, hv))
}

// Segment returns the half-open ionogram index range belonging to layer l.
// ok is false when the layer contributes no points.
func (p *Profile) Segment(l Layer) (start, end int, ok bool) {
	if l < 0 || int(l) >= NumLayers {
		return 0, 0, false
	}
	s := p.segments[l]
	if s[0] < 0 {
		return 0, 0, false
	}
	return s[0], s[1], true
}

// ReflectAt finds where a ray of frequency f launched at elev first
// reflects. ok is false when the ray penetrates every layer.
func (p *Profile) ReflectAt(f, elev float64) (Reflection, bool) {
	return p.reflect(f, elev, func(k int) float64 {
		pt := p.Ionogram[k]
		return ObliqueFreq(pt.Freq, elev, pt.VirtualHeight)
	})
}

// ReflectAtAngle is ReflectAt for tabulated angle a using the oblique table.
func (p *Profile) ReflectAtAngle(f float64, a int) (Reflection, bool) {
	row := p.Oblique[a]
	return p.reflect(f, Angle(a), func(k int) float64 { return row[k] })
}

func (p *Profile) reflect(f, elev float64, oblique func(k int) float64) (Reflection, bool) {
	h0 := p.bottom()
	prevF, prevFv, prevHt, prevHv := 0.0, 0.0, h0, h0
	for k, pt := range p.Ionogram {
		fo := oblique(k)
		if fo >= f {
			t := mathutil.Clamp(mathutil.SafeDiv(f-prevF, fo-prevF), 0, 1)
			r := Reflection{
				Layer:         pt.Layer,
				Elevation:     elev,
				VertFreq:      mathutil.Lerp(prevFv, pt.Freq, t),
				TrueHeight:    mathutil.Lerp(prevHt, pt.TrueHeight, t),
				VirtualHeight: mathutil.Lerp(prevHv, pt.VirtualHeight, t),
			}
			r.VirtualHeight = math.Max(r.VirtualHeight, r.TrueHeight)
			r.HopDistance = geo.HopDistance(elev, r.VirtualHeight)
			return r, true
		}
		prevF, prevFv, prevHt, prevHv = fo, pt.Freq, pt.TrueHeight, pt.VirtualHeight
	}
	return Reflection{}, false
}
