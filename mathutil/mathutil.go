// Package mathutil holds the domain-safe numeric primitives shared by the
// propagation packages. Every clamp before a log, sqrt or inverse trig call
// lives here so the model degrades gracefully instead of producing NaN.
package mathutil

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MinLogArg is the floor applied to logarithm arguments.
	MinLogArg = 1e-30
	// MinCos keeps secant factors finite for grazing rays.
	MinCos = 0.05
	// MinDenominator is the smallest magnitude allowed in a divisor.
	MinDenominator = 1e-9
	// DecileFactor converts a decile deviation to one standard deviation.
	DecileFactor = 1.2815515655446004
	// DBPerNeper converts nepers (natural log units) to decibels of power.
	DBPerNeper = 10 / math.Ln10
)

var unitNormal = distuv.UnitNormal

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeLog10 returns log10(max(x, MinLogArg)).
func SafeLog10(x float64) float64 {
	if !(x > MinLogArg) {
		x = MinLogArg
	}
	return math.Log10(x)
}

// SafeSqrt returns sqrt(max(x, 0)).
func SafeSqrt(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	return math.Sqrt(x)
}

func SafeAcos(x float64) float64 {
	return math.Acos(Clamp(x, -1, 1))
}

func SafeAsin(x float64) float64 {
	return math.Asin(Clamp(x, -1, 1))
}

// ClampedSecant returns 1/cos with the cosine kept at or above MinCos.
func ClampedSecant(cos float64) float64 {
	if cos < MinCos {
		cos = MinCos
	}
	return 1 / cos
}

// SafeDiv divides a by b, replacing a near-zero b with a signed MinDenominator.
func SafeDiv(a, b float64) float64 {
	if math.Abs(b) < MinDenominator {
		if b < 0 {
			b = -MinDenominator
		} else {
			b = MinDenominator
		}
	}
	return a / b
}

// ToDB converts a linear power ratio to decibels; zero power maps to -Inf.
func ToDB(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(p)
}

// FromDB converts decibels to a linear power ratio; -Inf maps to zero.
func FromDB(db float64) float64 {
	if math.IsInf(db, -1) {
		return 0
	}
	return math.Pow(10, db/10)
}

// PowerSumDB adds powers given in dB in the linear domain.
func PowerSumDB(values ...float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += FromDB(v)
	}
	return ToDB(sum)
}

// NormalCDF is the standard normal cumulative distribution.
func NormalCDF(z float64) float64 {
	if math.IsNaN(z) {
		return 0
	}
	return unitNormal.CDF(z)
}

// NormalQuantile is the inverse of NormalCDF for p in (0,1).
func NormalQuantile(p float64) float64 {
	p = Clamp(p, 1e-12, 1-1e-12)
	return unitNormal.Quantile(p)
}

// DecileToSigma turns a 10%/90% decile deviation into a standard deviation.
func DecileToSigma(decile float64) float64 {
	return decile / DecileFactor
}

// SplitNormalProb returns P(X >= threshold) for a variable whose median is
// median and whose spread below and above the median is given as deciles.
func SplitNormalProb(median, threshold, decileLo, decileHi float64) float64 {
	margin := median - threshold
	decile := decileLo
	if margin < 0 {
		decile = decileHi
	}
	sigma := DecileToSigma(decile)
	if sigma < MinDenominator {
		if margin >= 0 {
			return 1
		}
		return 0
	}
	return NormalCDF(margin / sigma)
}

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// InterpTable linearly interpolates y(x) over ascending xs, clamping at the ends.
func InterpTable(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 0 || len(ys) < n {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	for i := 1; i < n; i++ {
		if x <= xs[i] {
			t := SafeDiv(x-xs[i-1], xs[i]-xs[i-1])
			return Lerp(ys[i-1], ys[i], t)
		}
	}
	return ys[n-1]
}

// Smoothstep maps t in [0,1] onto a cosine ramp with zero slope at both ends.
func Smoothstep(t float64) float64 {
	t = Clamp(t, 0, 1)
	return 0.5 * (1 - math.Cos(math.Pi*t))
}

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// WrapTwoPi maps x into [0, 2π).
func WrapTwoPi(x float64) float64 {
	y := math.Mod(x, 2*math.Pi)
	if y < 0 {
		y += 2 * math.Pi
	}
	return y
}

// WrapPi maps x into (-π, π].
func WrapPi(x float64) float64 {
	y := math.Mod(x+math.Pi, 2*math.Pi)
	if y < 0 {
		y += 2 * math.Pi
	}
	y -= math.Pi
	if y == -math.Pi {
		return math.Pi
	}
	return y
}
