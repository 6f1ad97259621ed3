// Package coeffs holds the month-indexed ionospheric and noise coefficient
// tables and evaluates them as geographic maps. Tables are immutable once
// loaded and are shared read-only between concurrent predictions.
package coeffs

import (
	"errors"
	"fmt"
	"math"
)

const (
	NumVarMaps    = 6
	NumFixedMaps  = 3
	NumTimeBlocks = 6
	MaxGeoTerms   = 76
	MaxFourier    = 13
	MaxOrders     = 10
)

var (
	ErrMonthNotFound = errors.New("coeffs: month table not found")
	ErrCorrupt       = errors.New("coeffs: corrupt month table")
)

// VarMap identifies a map that varies with UTC and sunspot number.
type VarMap int

const (
	EsUpper VarMap = iota
	EsMedian
	EsLower
	F2
	M3000
	F2Spread
)

var varMapNames = [NumVarMaps]string{"es-upper", "es-median", "es-lower", "f2", "m3000", "f2-spread"}

func (k VarMap) String() string {
	if k < 0 || int(k) >= NumVarMaps {
		return fmt.Sprintf("varmap(%d)", int(k))
	}
	return varMapNames[k]
}

// fourierTerms is the number of time Fourier coefficients used per map.
var fourierTerms = [NumVarMaps]int{9, 9, 9, 13, 9, 5}

// FixedMap identifies a time-invariant geographic map.
type FixedMap int

const (
	LandMass FixedMap = iota
	HmYmRatio
	F1Ratio
)

// Table is one month of coefficients. Every array has a fixed shape so the
// on-disk layout is a direct image of the struct.
type Table struct {
	Month int

	// Kim[kind][order] is the number of latitude powers used for longitude
	// harmonic order in variable map kind.
	Kim [NumVarMaps][MaxOrders]int32
	// Var[kind][ssn][term][fourier] holds coefficients at SSN 0 and 100.
	Var [NumVarMaps][2][MaxGeoTerms][MaxFourier]float32

	FixedKim [NumFixedMaps][MaxOrders]int32
	Fixed    [NumFixedMaps][MaxGeoTerms]float32

	// Atmospheric noise at 1 MHz (dB above kTb) per 4-hour local time block.
	AtmoKim [MaxOrders]int32
	Atmo    [NumTimeBlocks][MaxGeoTerms]float32
	// AtmoFreq holds c0, c1, c2 of Fa(f) = Fam + c0 + c1*u + c2*u^2, u = log10(f MHz).
	AtmoFreq [NumTimeBlocks][3]float32
	// AtmoDecile holds upper/lower decile at 1 MHz and their slopes per decade.
	AtmoDecile [NumTimeBlocks][4]float32
}

// Validate checks the index tables and rejects non-finite coefficients.
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrCorrupt)
	}
	if t.Month < 1 || t.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrCorrupt, t.Month)
	}
	for k := 0; k < NumVarMaps; k++ {
		if err := checkKim(t.Kim[k]); err != nil {
			return fmt.Errorf("%w: %s index: %v", ErrCorrupt, VarMap(k), err)
		}
		for s := 0; s < 2; s++ {
			for i := range t.Var[k][s] {
				for _, v := range t.Var[k][s][i] {
					if !finite32(v) {
						return fmt.Errorf("%w: %s coefficient not finite", ErrCorrupt, VarMap(k))
					}
				}
			}
		}
	}
	for k := 0; k < NumFixedMaps; k++ {
		if err := checkKim(t.FixedKim[k]); err != nil {
			return fmt.Errorf("%w: fixed map %d index: %v", ErrCorrupt, k, err)
		}
	}
	if err := checkKim(t.AtmoKim); err != nil {
		return fmt.Errorf("%w: noise index: %v", ErrCorrupt, err)
	}
	for b := 0; b < NumTimeBlocks; b++ {
		for _, v := range t.Atmo[b] {
			if !finite32(v) {
				return fmt.Errorf("%w: noise coefficient not finite", ErrCorrupt)
			}
		}
	}
	return nil
}

func checkKim(kim [MaxOrders]int32) error {
	total := 0
	for j, n := range kim {
		if n < 0 {
			return fmt.Errorf("negative count at order %d", j)
		}
		if j == 0 {
			total += int(n)
		} else {
			total += 2 * int(n)
		}
	}
	if total > MaxGeoTerms {
		return fmt.Errorf("%d terms exceed %d", total, MaxGeoTerms)
	}
	return nil
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
