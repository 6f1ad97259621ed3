package geomag

import (
	"math"
	"testing"

	"hfprop/geo"
	"hfprop/mathutil"
)

func TestDipoleAxisPosition(t *testing.T) {
	pole := Default().Pole()
	lat, lon := pole.Degrees()
	if lat < 79 || lat > 82 {
		t.Fatalf("expected geomagnetic pole near 80.6N, got %.2f", lat)
	}
	if lon < -75 || lon > -70 {
		t.Fatalf("expected geomagnetic pole near 72.7W, got %.2f", lon)
	}
}

func TestMidLatitudeEnvironment(t *testing.T) {
	env := Default().At(geo.PointFromDegrees(45, 0))
	dip := mathutil.RadToDeg(env.Dip)
	if dip < 50 || dip > 75 {
		t.Fatalf("expected dip 50..75 deg at 45N, got %.1f", dip)
	}
	if env.GyroFreq < 0.9 || env.GyroFreq > 1.6 {
		t.Fatalf("expected gyrofrequency near 1.2 MHz, got %.3f", env.GyroFreq)
	}
	if env.MagLat <= 0 {
		t.Fatalf("expected northern magnetic latitude, got %v", env.MagLat)
	}
	south := Default().At(geo.PointFromDegrees(-45, 170))
	if south.Dip >= 0 || south.MagLat >= 0 {
		t.Fatalf("expected upward dip and southern maglat, got dip=%v maglat=%v", south.Dip, south.MagLat)
	}
}

func TestPoleIsFinite(t *testing.T) {
	for _, lat := range []float64{90, -90} {
		env := Default().At(geo.PointFromDegrees(lat, 0))
		if math.IsNaN(env.Dip) || math.IsNaN(env.GyroFreq) || math.IsNaN(env.Modip) || math.IsNaN(env.MagLat) {
			t.Fatalf("expected finite values at lat %v, got %+v", lat, env)
		}
		if math.Abs(mathutil.RadToDeg(env.Dip)) < 65 {
			t.Fatalf("expected steep dip at the pole, got %.1f", mathutil.RadToDeg(env.Dip))
		}
	}
}

func TestAntimeridianContinuity(t *testing.T) {
	m := Default()
	east := m.At(geo.PointFromDegrees(-30, 179.9999))
	west := m.At(geo.PointFromDegrees(-30, -179.9999))
	if math.Abs(east.Dip-west.Dip) > 1e-4 || math.Abs(east.GyroFreq-west.GyroFreq) > 1e-4 {
		t.Fatalf("expected continuous field across 180 deg: %+v vs %+v", east, west)
	}
}

func TestSecularVariation(t *testing.T) {
	base := Default().Field(geo.PointFromDegrees(10, 10), 0)
	later := ForYear(2025).Field(geo.PointFromDegrees(10, 10), 0)
	if base == later {
		t.Fatalf("expected the field to drift between epochs")
	}
	if math.Abs(base.Total()-later.Total()) > 1000 {
		t.Fatalf("expected a small drift, got %v nT", base.Total()-later.Total())
	}
}

func TestModifiedDip(t *testing.T) {
	if got := ModifiedDip(0, 0.3); got != 0 {
		t.Fatalf("expected zero modip on the dip equator, got %v", got)
	}
	if got := ModifiedDip(1, math.Pi/2); math.IsNaN(got) || got <= 0 {
		t.Fatalf("expected finite positive modip at the pole, got %v", got)
	}
}
