package geo

import (
	"math"
	"testing"

	"hfprop/mathutil"
)

func TestDistanceSymmetric(t *testing.T) {
	tangier := PointFromDegrees(35.80, -5.90)
	belgrade := PointFromDegrees(44.90, 20.50)
	fwd := NewPath(tangier, belgrade)
	rev := NewPath(belgrade, tangier)
	if math.Abs(fwd.Distance-rev.Distance) > 1e-12 {
		t.Fatalf("expected symmetric distance, got %v vs %v", fwd.Distance, rev.Distance)
	}
	if km := fwd.DistanceKm(); math.Abs(km-2440) > 5 {
		t.Fatalf("expected ~2440 km, got %.1f", km)
	}
	if math.Abs(fwd.AzimuthTR-rev.AzimuthRT) > 1e-12 {
		t.Fatalf("expected forward azimuth to match reverse path's back azimuth")
	}
	// Off the meridian/equator the back azimuth is not simply reversed.
	diff := math.Abs(mathutil.WrapPi(fwd.AzimuthRT - fwd.AzimuthTR))
	if math.Abs(diff-math.Pi) < mathutil.DegToRad(1) {
		t.Fatalf("expected convergence of meridians to bend the back azimuth, diff=%v", diff)
	}
}

func TestAzimuthSpecialCases(t *testing.T) {
	cases := []struct {
		name   string
		tx, rx Point
	}{
		{"meridian", PointFromDegrees(10, 20), PointFromDegrees(40, 20)},
		{"equator", PointFromDegrees(0, 10), PointFromDegrees(0, 50)},
	}
	for _, tc := range cases {
		p := NewPath(tc.tx, tc.rx)
		diff := math.Abs(mathutil.WrapPi(p.AzimuthRT - p.AzimuthTR))
		if math.Abs(diff-math.Pi) > 1e-9 {
			t.Fatalf("%s: expected azimuths 180 deg apart, got %v", tc.name, mathutil.RadToDeg(diff))
		}
	}
}

func TestDegeneratePathsStayFinite(t *testing.T) {
	a := PointFromDegrees(12, 34)
	same := NewPath(a, a)
	if same.Distance != 0 || math.IsNaN(same.AzimuthTR) {
		t.Fatalf("expected zero distance and finite azimuth, got %v %v", same.Distance, same.AzimuthTR)
	}
	anti := NewPath(PointFromDegrees(0, 0), PointFromDegrees(0, 180))
	if math.Abs(anti.Distance-math.Pi) > 1e-9 || math.IsNaN(anti.AzimuthTR) {
		t.Fatalf("expected antipodal distance pi, got %v az=%v", anti.Distance, anti.AzimuthTR)
	}
	mid := anti.Midpoint()
	if math.IsNaN(mid.Lat) || math.IsNaN(mid.Lon) {
		t.Fatalf("expected finite midpoint, got %+v", mid)
	}
}

func TestPointAtDistanceReachesRx(t *testing.T) {
	tx := PointFromDegrees(35.80, -5.90)
	rx := PointFromDegrees(44.90, 20.50)
	p := NewPath(tx, rx)
	end := p.PointAtFraction(1)
	if CentralAngle(end, rx) > 1e-9 {
		t.Fatalf("expected endpoint at rx, got %v", end)
	}
	mid := p.Midpoint()
	if math.Abs(CentralAngle(tx, mid)-CentralAngle(mid, rx)) > 1e-9 {
		t.Fatalf("expected midpoint equidistant from both ends")
	}
}

func TestAntimeridianCrossing(t *testing.T) {
	p := NewPath(PointFromDegrees(10, 179), PointFromDegrees(10, -179))
	if km := p.DistanceKm(); km > 300 {
		t.Fatalf("expected short path across the antimeridian, got %.1f km", km)
	}
}

func TestComplement(t *testing.T) {
	p := NewPath(PointFromDegrees(35.80, -5.90), PointFromDegrees(44.90, 20.50))
	lp := p.Complement()
	if math.Abs(lp.Distance+p.Distance-2*math.Pi) > 1e-12 || !lp.Long {
		t.Fatalf("expected complement distance 2pi-d, got %v", lp.Distance)
	}
	end := lp.PointAtFraction(1)
	if CentralAngle(end, p.Rx) > 1e-6 {
		t.Fatalf("expected long path to end at rx, got %v", end)
	}
}

func TestElevationHopRoundTrip(t *testing.T) {
	for h := 50.0; h <= 2000; h += 75 {
		for deg := 0.5; deg < 90; deg += 2.5 {
			elev := mathutil.DegToRad(deg)
			hop := HopDistance(elev, h)
			if hop <= 0 {
				t.Fatalf("expected positive hop distance at h=%v elev=%v, got %v", h, deg, hop)
			}
			back := ElevationFor(hop, h)
			if math.Abs(back-elev) > 1e-4 {
				t.Fatalf("round trip failed at h=%v elev=%v: got %v", h, deg, mathutil.RadToDeg(back))
			}
		}
	}
}

func TestHopDistanceDecreasesWithElevation(t *testing.T) {
	prev := math.Inf(1)
	for deg := 0.0; deg <= 89; deg++ {
		d := HopDistance(mathutil.DegToRad(deg), 300)
		if d >= prev {
			t.Fatalf("expected hop distance to shrink with elevation at %v deg", deg)
		}
		prev = d
	}
	maxKm := HopDistance(0, 300) * EarthRadiusKm
	if maxKm < 3800 || maxKm > 4000 {
		t.Fatalf("expected ~3900 km grazing hop at 300 km, got %.0f", maxKm)
	}
}

func TestSlantRangeVertical(t *testing.T) {
	if got := SlantRange(math.Pi/2, 300); math.Abs(got-300) > 1e-6 {
		t.Fatalf("expected 300 km vertical slant range, got %v", got)
	}
}

func TestHopCount(t *testing.T) {
	if n := HopCount(0.3, 0.1); n != 3 {
		t.Fatalf("expected 3 hops, got %d", n)
	}
	if n := HopCount(0.05, 0.1); n != 1 {
		t.Fatalf("expected 1 hop, got %d", n)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("KN04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lat, lon := p.Degrees()
	if math.Abs(lat-44.5) > 1e-9 || math.Abs(lon-21) > 1e-9 {
		t.Fatalf("expected KN04 center 44.5,21 got %v,%v", lat, lon)
	}
	p, err = ParsePoint(" 35.80, -5.90 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lat, lon = p.Degrees()
	if math.Abs(lat-35.8) > 1e-9 || math.Abs(lon+5.9) > 1e-9 {
		t.Fatalf("unexpected point %v,%v", lat, lon)
	}
	for _, bad := range []string{"", "KN0", "91,0", "0,181", "a,b"} {
		if _, err := ParsePoint(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
