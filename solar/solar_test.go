package solar

import (
	"math"
	"testing"
	"time"

	"hfprop/geo"
	"hfprop/mathutil"
)

func TestLocalTimeMidnightIsOne(t *testing.T) {
	if got := LocalTime(geo.PointFromDegrees(0, 0), 0); got != 1 {
		t.Fatalf("expected midnight to map to 1.0, got %v", got)
	}
	if got := LocalTime(geo.PointFromDegrees(0, 0), 1); got != 1 {
		t.Fatalf("expected utc=1 to map to 1.0, got %v", got)
	}
	// 90E at 18 UTC is local midnight.
	if got := LocalTime(geo.PointFromDegrees(0, 90), 0.75); math.Abs(got-1) > 1e-12 {
		t.Fatalf("expected local midnight 1.0, got %v", got)
	}
}

func TestLocalTimeRange(t *testing.T) {
	for lon := -180.0; lon <= 180; lon += 15 {
		for utc := 0.0; utc <= 1; utc += 1.0 / 48 {
			lt := LocalTime(geo.PointFromDegrees(20, lon), utc)
			if lt <= 0 || lt > 1 {
				t.Fatalf("local time %v out of (0,1] for lon=%v utc=%v", lt, lon, utc)
			}
		}
	}
	west := LocalTime(geo.PointFromDegrees(0, -90), 0.5)
	if math.Abs(west-0.25) > 1e-12 {
		t.Fatalf("expected 06 local at 90W for 12 UTC, got %v", west)
	}
}

func TestZenithAngleNoonEquinox(t *testing.T) {
	// Subsolar latitude in March is near the equator.
	z := ZenithAngle(geo.PointFromDegrees(-2.4, 0), 0.5, 3)
	if z > 1e-6 {
		t.Fatalf("expected overhead sun, got %v rad", z)
	}
	night := ZenithAngle(geo.PointFromDegrees(0, 0), 0, 3)
	if night < math.Pi/2 {
		t.Fatalf("expected sun below horizon at midnight, got %v", mathutil.RadToDeg(night))
	}
	env := At(geo.PointFromDegrees(45, 0), 0.5, 6)
	if !env.IsDay() {
		t.Fatalf("expected daytime at local noon in June")
	}
}

func TestDeclinationTableMatchesEphemeris(t *testing.T) {
	for m := 1; m <= 12; m++ {
		at := time.Date(2024, time.Month(m), 15, 12, 0, 0, 0, time.UTC)
		want := subsolarLatitude(at)
		got := mathutil.RadToDeg(Declination(m))
		if math.Abs(got-want) > 1.5 {
			t.Fatalf("month %d: expected declination near %.2f, got %.2f", m, want, got)
		}
	}
	if Declination(13) != Declination(1) || Declination(0) != Declination(12) {
		t.Fatalf("expected month index to wrap")
	}
}

// subsolarLatitude is the low-precision solar declination used to cross
// check the mid-month table.
func subsolarLatitude(t time.Time) float64 {
	jd := julianDay(t.UTC())
	T := (jd - 2451545.0) / 36525.0
	L0 := math.Mod(280.46646+T*(36000.76983+T*0.0003032), 360.0)
	M := 357.52911 + T*(35999.05029-0.0001537*T)
	C := math.Sin(mathutil.DegToRad(M))*(1.914602-T*(0.004817+0.000014*T)) +
		math.Sin(mathutil.DegToRad(2*M))*(0.019993-0.000101*T) +
		math.Sin(mathutil.DegToRad(3*M))*0.000289
	omega := 125.04 - 1934.136*T
	lambda := L0 + C - 0.00569 - 0.00478*math.Sin(mathutil.DegToRad(omega))
	eps0 := 23.0 + (26.0+(21.448-T*(46.815+T*(0.00059-0.001813*T)))/60.0)/60.0
	eps := eps0 + 0.00256*math.Cos(mathutil.DegToRad(omega))
	sinDecl := math.Sin(mathutil.DegToRad(eps)) * math.Sin(mathutil.DegToRad(lambda))
	return mathutil.RadToDeg(math.Asin(sinDecl))
}

func julianDay(t time.Time) float64 {
	y, m, d := t.Date()
	if m <= 2 {
		y--
		m += 12
	}
	A := y / 100
	B := 2 - A + A/4
	day := float64(d) + float64(t.Hour())/24.0 + float64(t.Minute())/1440.0 + float64(t.Second())/86400.0
	return float64(int(365.25*float64(y+4716))) + float64(int(30.6001*float64(m+1))) + day + float64(B) - 1524.5
}
