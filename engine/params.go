package engine

import (
	"errors"
	"fmt"
	"math"

	"hfprop/antenna"
	"hfprop/geo"
	"hfprop/mathutil"
)

// ErrInvalidParams reports a configuration error in Params or in the
// arguments to Predict. It is never retried.
var ErrInvalidParams = errors.New("engine: invalid parameters")

const (
	MaxSSN  = 300.0
	MinFreq = 1.0
	MaxFreq = 50.0
)

// Params is the caller-supplied circuit description. It is read-only for
// the duration of one Predict call.
type Params struct {
	Tx    geo.Point
	Month int
	SSN   float64
	// TxPower is the transmitter power in watts.
	TxPower float64
	// MinTakeoff is the lowest usable elevation angle, radians.
	MinTakeoff float64
	// ManMadeNoise is the man-made noise level at 3 MHz, dBW/Hz.
	ManMadeNoise float64
	// RequiredSNR is the signal-to-noise density ratio, dB-Hz, that
	// defines service.
	RequiredSNR         float64
	RequiredReliability float64
	// MultipathDelay (ms) is the largest delay spread tolerated between
	// modes; MultipathTolerance (dB) is how close in power a second mode
	// must be to count.
	MultipathDelay     float64
	MultipathTolerance float64
	// LongPath predicts along the great-circle complement.
	LongPath bool

	TxAntennas antenna.Farm
	RxAntennas antenna.Farm
}

// DefaultParams returns a residential-noise circuit with isotropic
// antennas and a 3 degree minimum takeoff angle.
func DefaultParams() Params {
	return Params{
		Month:               1,
		SSN:                 100,
		TxPower:             1000,
		MinTakeoff:          mathutil.DegToRad(3),
		ManMadeNoise:        -145,
		RequiredSNR:         73,
		RequiredReliability: 0.9,
		MultipathDelay:      0.1,
		MultipathTolerance:  3,
	}
}

// Validate returns ErrInvalidParams wrapped with the offending field.
func (p Params) Validate() error {
	switch {
	case p.Month < 1 || p.Month > 12:
		return fmt.Errorf("%w: month %d outside 1..12", ErrInvalidParams, p.Month)
	case !finite(p.SSN) || p.SSN < 0 || p.SSN > MaxSSN:
		return fmt.Errorf("%w: ssn %v outside [0, %v]", ErrInvalidParams, p.SSN, MaxSSN)
	case !finite(p.TxPower) || p.TxPower <= 0:
		return fmt.Errorf("%w: tx power %v W", ErrInvalidParams, p.TxPower)
	case !finite(p.MinTakeoff) || p.MinTakeoff < 0 || p.MinTakeoff >= math.Pi/2:
		return fmt.Errorf("%w: min takeoff %v rad", ErrInvalidParams, p.MinTakeoff)
	case math.IsNaN(p.ManMadeNoise):
		return fmt.Errorf("%w: man-made noise is NaN", ErrInvalidParams)
	case !finite(p.RequiredSNR):
		return fmt.Errorf("%w: required snr %v", ErrInvalidParams, p.RequiredSNR)
	case !(p.RequiredReliability > 0 && p.RequiredReliability < 1):
		return fmt.Errorf("%w: required reliability %v outside (0, 1)", ErrInvalidParams, p.RequiredReliability)
	case !finite(p.MultipathDelay) || p.MultipathDelay < 0:
		return fmt.Errorf("%w: multipath delay %v ms", ErrInvalidParams, p.MultipathDelay)
	case !finite(p.MultipathTolerance) || p.MultipathTolerance < 0:
		return fmt.Errorf("%w: multipath tolerance %v dB", ErrInvalidParams, p.MultipathTolerance)
	}
	if err := validPoint(p.Tx); err != nil {
		return fmt.Errorf("%w: tx %v", ErrInvalidParams, err)
	}
	return nil
}

func validateCall(rx geo.Point, utc float64, freqs []float64) error {
	if err := validPoint(rx); err != nil {
		return fmt.Errorf("%w: rx %v", ErrInvalidParams, err)
	}
	if !finite(utc) || utc < 0 || utc > 1 {
		return fmt.Errorf("%w: utc %v outside [0, 1] days", ErrInvalidParams, utc)
	}
	if len(freqs) == 0 {
		return fmt.Errorf("%w: no frequencies", ErrInvalidParams)
	}
	for i, f := range freqs {
		if !finite(f) || f < MinFreq || f > MaxFreq {
			return fmt.Errorf("%w: frequency %v MHz outside [%v, %v]", ErrInvalidParams, f, MinFreq, MaxFreq)
		}
		if i > 0 && f <= freqs[i-1] {
			return fmt.Errorf("%w: frequencies not ascending at %v MHz", ErrInvalidParams, f)
		}
	}
	return nil
}

func validPoint(p geo.Point) error {
	if !finite(p.Lat) || !finite(p.Lon) || math.Abs(p.Lat) > math.Pi/2 {
		return fmt.Errorf("location %v out of range", p)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
