package noise

import (
	"math"
	"testing"

	"hfprop/coeffs"
	"hfprop/geo"
)

func TestCombineZeroComponents(t *testing.T) {
	got := Combine(Zero, Zero, Zero)
	if math.IsNaN(got.Median) || !math.IsInf(got.Median, -1) {
		t.Fatalf("expected -Inf median, got %v", got.Median)
	}
	if math.IsNaN(got.Upper) || math.IsNaN(got.Lower) {
		t.Fatalf("expected finite deciles, got %+v", got)
	}
	if got := Combine(); !math.IsInf(got.Median, -1) {
		t.Fatalf("expected -Inf for no components, got %v", got.Median)
	}
}

func TestCombineEqualComponents(t *testing.T) {
	c := Component{Median: -150, Upper: 8, Lower: 6}
	got := Combine(c, c)
	if math.Abs(got.Median-(-150+10*math.Log10(2))) > 1e-9 {
		t.Fatalf("expected +3 dB, got %v", got.Median)
	}
	if got.Upper >= 8 || got.Upper <= 0 || got.Lower >= 6 || got.Lower <= 0 {
		t.Fatalf("expected narrower deciles for two independent sources, got %+v", got)
	}
}

func TestCombineDominantComponent(t *testing.T) {
	strong := Component{Median: -140, Upper: 9, Lower: 7}
	weak := Component{Median: -200, Upper: 2, Lower: 2}
	got := Combine(strong, weak, Zero)
	if math.Abs(got.Median-strong.Median) > 1e-4 {
		t.Fatalf("expected the strong median, got %v", got.Median)
	}
	if math.Abs(got.Upper-strong.Upper) > 0.01 || math.Abs(got.Lower-strong.Lower) > 0.01 {
		t.Fatalf("expected the strong deciles, got %+v", got)
	}
}

func TestCaruanaModification(t *testing.T) {
	a := Component{Median: -150, Upper: 15, Lower: 6}
	b := Component{Median: -150, Upper: 5, Lower: 4}
	got := Combine(a, b)
	if math.Abs(got.Upper-10) > 1e-9 || math.Abs(got.Lower-5) > 1e-9 {
		t.Fatalf("expected power-weighted deciles 10/5, got %+v", got)
	}
}

func TestGalacticGating(t *testing.T) {
	if got := Galactic(6, 7); !math.IsInf(got.Median, -1) {
		t.Fatalf("expected no galactic noise below foF2, got %+v", got)
	}
	got := Galactic(10, 7)
	if math.Abs(got.Median-(52-23-KTB0)) > 1e-9 {
		t.Fatalf("expected %v, got %v", 52-23-KTB0, got.Median)
	}
}

func TestManMadeSlope(t *testing.T) {
	if got := ManMade(3, -145); math.Abs(got.Median+145) > 1e-9 {
		t.Fatalf("expected the reference level at 3 MHz, got %v", got.Median)
	}
	if got := ManMade(30, -145); math.Abs(got.Median+145+27.7) > 1e-9 {
		t.Fatalf("expected -27.7 dB per decade, got %v", got.Median)
	}
}

func TestTimeBlock(t *testing.T) {
	cases := map[float64]int{1.0: 0, 0.01: 0, 0.17: 1, 0.5: 3, 0.99: 5}
	for lt, want := range cases {
		if got := TimeBlock(lt); got != want {
			t.Fatalf("local time %v: expected block %d, got %d", lt, want, got)
		}
	}
}

func TestModelCompute(t *testing.T) {
	m := Model{Table: coeffs.Uniform(6, coeffs.DefaultSynthetic()), ManMade3MHz: -145}
	d := m.Compute(geo.PointFromDegrees(44.9, 20.5), 1.0/24, 10, 7)
	if math.Abs(d.Atmospheric.Median-(45-KTB0)) > 1e-4 {
		t.Fatalf("expected atmospheric noise 45 dB above kTb, got %v", d.Atmospheric.Median+KTB0)
	}
	if d.Combined.Median < d.Atmospheric.Median || d.Combined.Median < d.ManMade.Median {
		t.Fatalf("expected the sum to exceed each part, got %+v", d)
	}
	quiet := Model{Table: coeffs.Uniform(6, coeffs.DefaultSynthetic()), ManMade3MHz: math.Inf(-1)}
	if d := quiet.Compute(geo.PointFromDegrees(0, 0), 0.5, 5, 7); math.IsNaN(d.Combined.Median) {
		t.Fatalf("expected a finite combination without man-made noise")
	}
}
