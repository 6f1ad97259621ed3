package ionosphere

import (
	"math"
	"testing"

	"hfprop/coeffs"
	"hfprop/geo"
	"hfprop/geomag"
)

func testProfile(t *testing.T, s coeffs.Synthetic, latDeg, lonDeg, utcHours float64, month int, ssn float64) *Profile {
	t.Helper()
	table := coeffs.Uniform(month, s)
	utc := utcHours / 24
	cp := NewControlPoint(geo.PointFromDegrees(latDeg, lonDeg), 0, utc, month, geomag.Default(), table)
	return Compute(cp, table, ssn, utc)
}

func TestNightProfile(t *testing.T) {
	p := testProfile(t, coeffs.DefaultSynthetic(), 40.5, 7, 1, 6, 100)
	if p.F1.Present() {
		t.Fatalf("expected no F1 at night, got %+v", p.F1)
	}
	if math.Abs(p.F2.Fo-7.0) > 1e-4 {
		t.Fatalf("expected foF2 7.0, got %v", p.F2.Fo)
	}
	if p.E.Fo > 1.0 {
		t.Fatalf("expected night-time foE below 1 MHz, got %v", p.E.Fo)
	}
	if p.F2.Hm < 280 || p.F2.Hm > 360 {
		t.Fatalf("expected hmF2 near 320 km, got %v", p.F2.Hm)
	}
}

func TestDaytimeLayerOrdering(t *testing.T) {
	p := testProfile(t, coeffs.DefaultSynthetic(), 20, 0, 12, 6, 100)
	if !p.F1.Present() {
		t.Fatalf("expected F1 at local noon, got %+v", p.F1)
	}
	if !(p.E.Fo < p.F1.Fo && p.F1.Fo < p.F2.Fo) {
		t.Fatalf("expected foE < foF1 < foF2, got %v %v %v", p.E.Fo, p.F1.Fo, p.F2.Fo)
	}
	if !(p.E.Hm < p.F1.Hm && p.F1.Hm < p.F2.Hm) {
		t.Fatalf("expected stacked layers, got %v %v %v", p.E.Hm, p.F1.Hm, p.F2.Hm)
	}
}

func TestF1SuppressedNearF2(t *testing.T) {
	s := coeffs.DefaultSynthetic()
	s.FoF2 = [2]float64{4.5, 5.0}
	p := testProfile(t, s, 20, 0, 12, 6, 100)
	if p.F1.Present() {
		t.Fatalf("expected F1 suppressed when foF1 >= 0.9 foF2, got %+v (foF2 %v)", p.F1, p.F2.Fo)
	}
	if _, _, ok := p.Segment(F1); ok {
		t.Fatalf("expected no F1 ionogram segment")
	}
}

func TestF2NotBelowE(t *testing.T) {
	s := coeffs.DefaultSynthetic()
	s.FoF2 = [2]float64{1, 1}
	p := testProfile(t, s, 0, 0, 12, 3, 150)
	if p.F2.Fo < 1.1*p.E.Fo-1e-9 {
		t.Fatalf("expected foF2 >= 1.1 foE, got %v vs %v", p.F2.Fo, p.E.Fo)
	}
}

func TestIonogramShape(t *testing.T) {
	for _, utc := range []float64{1, 12} {
		p := testProfile(t, coeffs.DefaultSynthetic(), 40.5, 7, utc, 6, 100)
		if len(p.Ionogram) == 0 || len(p.Ionogram) > MaxIonogramPoints {
			t.Fatalf("expected 1..%d ionogram points, got %d", MaxIonogramPoints, len(p.Ionogram))
		}
		prev := IonogramPoint{}
		for i, pt := range p.Ionogram {
			if pt.Freq >= p.F2.Fo {
				t.Fatalf("point %d: frequency %v at or above foF2 %v", i, pt.Freq, p.F2.Fo)
			}
			if pt.VirtualHeight < pt.TrueHeight {
				t.Fatalf("point %d: virtual height %v below true height %v", i, pt.VirtualHeight, pt.TrueHeight)
			}
			if i > 0 && (pt.Freq <= prev.Freq || pt.TrueHeight < prev.TrueHeight) {
				t.Fatalf("point %d: expected increasing frequency and true height, got %+v after %+v", i, pt, prev)
			}
			prev = pt
		}
		if last := p.Ionogram[len(p.Ionogram)-1]; last.Layer != F2 {
			t.Fatalf("expected the ionogram to end in F2, got %v", last.Layer)
		}
	}
}

func TestTrueHeightPastPeak(t *testing.T) {
	p := testProfile(t, coeffs.DefaultSynthetic(), 40.5, 7, 1, 6, 100)
	if _, ok := p.TrueHeight(p.F2.Fo * 1.01); ok {
		t.Fatalf("expected no reflection height above foF2")
	}
	h, ok := p.TrueHeight(p.F2.Fo * 0.5)
	if !ok || h <= p.E.Hm || h >= p.F2.Hm {
		t.Fatalf("expected a bottomside height, got %v ok=%v", h, ok)
	}
}

func TestNoOrdinaryReflectionAboveFoF2(t *testing.T) {
	p := testProfile(t, coeffs.DefaultSynthetic(), 40.5, 7, 1, 6, 100)
	if _, ok := p.ReflectAt(p.F2.Fo*1.01, Angle(NumAngles-1)); ok {
		t.Fatalf("expected a near-vertical ray above foF2 to penetrate")
	}
	for a := 0; a < NumAngles; a++ {
		for f := 2.0; f < 30; f += 0.5 {
			r, ok := p.ReflectAt(f, Angle(a))
			if ok && r.VertFreq > p.F2.Fo {
				t.Fatalf("angle %d f %v: vertical frequency %v above foF2 %v", a, f, r.VertFreq, p.F2.Fo)
			}
		}
	}
}

func TestObliqueTableMatchesDirect(t *testing.T) {
	p := testProfile(t, coeffs.DefaultSynthetic(), 20, 0, 12, 6, 100)
	for _, a := range []int{0, 5, 15, 30} {
		for _, f := range []float64{3, 7.5, 12, 18} {
			r1, ok1 := p.ReflectAt(f, Angle(a))
			r2, ok2 := p.ReflectAtAngle(f, a)
			if ok1 != ok2 || math.Abs(r1.VirtualHeight-r2.VirtualHeight) > 1e-9 {
				t.Fatalf("angle %d f %v: table %+v/%v differs from direct %+v/%v", a, f, r2, ok2, r1, ok1)
			}
		}
	}
}

func TestEScreening(t *testing.T) {
	p := testProfile(t, coeffs.DefaultSynthetic(), 20, 0, 12, 6, 100)
	r, ok := p.ReflectAt(p.E.Fo*0.9, Angle(NumAngles-1))
	if !ok || r.Layer != E {
		t.Fatalf("expected an E reflection below foE, got %+v ok=%v", r, ok)
	}
	r, ok = p.ReflectAt(p.F2.Fo*0.97, Angle(NumAngles-1))
	if !ok || r.Layer != F2 {
		t.Fatalf("expected an F2 reflection just below foF2, got %+v ok=%v", r, ok)
	}
}

func TestBlend(t *testing.T) {
	day := testProfile(t, coeffs.DefaultSynthetic(), 20, 0, 12, 6, 100)
	night := testProfile(t, coeffs.DefaultSynthetic(), 20, 180, 12, 6, 100)
	b := Blend(day, night)
	if b.E != day.E || b.AbsorptionIndex != day.AbsorptionIndex {
		t.Fatalf("expected E region from the E-side profile")
	}
	if b.F2.Fo != night.F2.Fo {
		t.Fatalf("expected F2 from the F-side profile, got %v", b.F2.Fo)
	}
	if len(b.Ionogram) == 0 {
		t.Fatalf("expected a rebuilt ionogram")
	}
}

func TestEmpiricalLayerFormulas(t *testing.T) {
	if got := ECritical(math.Pi, 100); math.Abs(got-nightFoE) > 1e-9 {
		t.Fatalf("expected night foE floor %v, got %v", nightFoE, got)
	}
	if ECritical(0, 150) <= ECritical(0, 0) {
		t.Fatalf("expected foE to grow with SSN")
	}
	if got := AbsorptionIndex(math.Pi, 0); math.Abs(got-minAbsIndex) > 1e-12 {
		t.Fatalf("expected night absorption floor, got %v", got)
	}
	if got := F1Critical(2, 100, 1); got != 0 {
		t.Fatalf("expected no F1 with the sun down, got %v", got)
	}
	hm := F2PeakHeight(3.0, 7, 0.6)
	if hm < 300 || hm > 340 {
		t.Fatalf("expected hmF2 near 319 km, got %v", hm)
	}
}

func TestProfileSaturatesAboveMapSSN(t *testing.T) {
	at := func(ssn float64) *Profile {
		return testProfile(t, coeffs.DefaultSynthetic(), 10, 10, 12, 6, ssn)
	}
	capped := at(coeffs.MaxEffectiveSSN)
	for _, ssn := range []float64{200, 250, 300} {
		p := at(ssn)
		if p.E.Fo != capped.E.Fo || p.F1 != capped.F1 || p.F2 != capped.F2 {
			t.Fatalf("ssn %v: expected the layers of ssn %v, got E %+v F1 %+v F2 %+v",
				ssn, coeffs.MaxEffectiveSSN, p.E, p.F1, p.F2)
		}
		if p.AbsorptionIndex != capped.AbsorptionIndex {
			t.Fatalf("ssn %v: expected absorption index %v, got %v", ssn, capped.AbsorptionIndex, p.AbsorptionIndex)
		}
	}
	if got := EffectiveSSN(-5); got != 0 {
		t.Fatalf("expected a negative SSN to clamp to 0, got %v", got)
	}
	if got := EffectiveSSN(90); got != 90 {
		t.Fatalf("expected SSN 90 unchanged, got %v", got)
	}
}
