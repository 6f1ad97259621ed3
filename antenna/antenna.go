// Package antenna provides closed-form elevation gain patterns and a farm
// that dispatches on operating frequency.
package antenna

import (
	"errors"
	"fmt"
	"math"
	"strings"

	lev "github.com/agnivade/levenshtein"

	"hfprop/mathutil"
)

// ErrUnknownType is returned by ParseType for names outside the registry.
var ErrUnknownType = errors.New("antenna: unknown type")

// Type selects a gain pattern.
type Type int

const (
	Isotropic Type = iota
	Dipole
	Monopole
	Yagi
	InvertedV
)

var typeNames = map[Type]string{
	Isotropic: "isotropic",
	Dipole:    "dipole",
	Monopole:  "monopole",
	Yagi:      "yagi",
	InvertedV: "inverted-v",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType resolves a type name case-insensitively. Unknown names return
// ErrUnknownType with the closest registered name as a suggestion.
func ParseType(name string) (Type, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	best, bestDist := "", -1
	for t, n := range typeNames {
		if n == norm {
			return t, nil
		}
		if d := lev.ComputeDistance(norm, n); bestDist < 0 || d < bestDist || (d == bestDist && n < best) {
			best, bestDist = n, d
		}
	}
	if bestDist >= 0 && bestDist <= 3 {
		return Isotropic, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownType, name, best)
	}
	return Isotropic, fmt.Errorf("%w %q", ErrUnknownType, name)
}

// floorDB bounds how far any pattern falls below its peak.
const floorDB = 30.0

// Antenna is a pattern valid over [FreqLo, FreqHi] MHz. Gain is in dBi;
// Elevation is the main-beam takeoff angle and Beamwidth the -3 dB width,
// both in radians.
type Antenna struct {
	Name      string
	Type      Type
	FreqLo    float64
	FreqHi    float64
	MaxGain   float64
	Elevation float64
	Beamwidth float64
}

// Covers reports whether f (MHz) lies inside the antenna's range.
func (a Antenna) Covers(f float64) bool {
	return f >= a.FreqLo && f <= a.FreqHi
}

// Gain returns the gain in dBi at takeoff angle elev (radians).
func (a Antenna) Gain(elev float64) float64 {
	elev = mathutil.Clamp(elev, 0, math.Pi/2)
	var rel float64
	switch a.Type {
	case Dipole:
		rel = 20 * mathutil.SafeLog10(math.Cos(elev-a.Elevation))
	case InvertedV:
		rel = 10 * mathutil.SafeLog10(math.Cos(elev-a.Elevation))
	case Monopole:
		rel = -20 * elev / (math.Pi / 2)
	case Yagi:
		bw := a.Beamwidth
		if bw <= 0 {
			bw = mathutil.DegToRad(30)
		}
		x := (elev - a.Elevation) / bw
		rel = -12 * x * x
	default:
		rel = 0
	}
	return a.MaxGain + math.Max(rel, -floorDB)
}

// IsotropicAntenna is the 0 dBi fallback.
var IsotropicAntenna = Antenna{Name: "isotropic", Type: Isotropic, FreqLo: 0, FreqHi: math.Inf(1)}

// Farm is an ordered set of antennas.
type Farm []Antenna

// Select returns the first antenna whose range covers f, or the isotropic
// fallback.
func (f Farm) Select(freq float64) Antenna {
	for _, a := range f {
		if a.Covers(freq) {
			return a
		}
	}
	return IsotropicAntenna
}
