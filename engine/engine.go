// Package engine predicts HF circuit performance: it samples the path,
// builds ionospheric profiles, computes the circuit MUF, evaluates every
// ray mode's signal budget against the receiver noise and reduces the
// modes to one reliability figure per frequency.
package engine

import (
	"errors"
	"fmt"
	"log"

	"hfprop/coeffs"
	"hfprop/geo"
	"hfprop/geomag"
	"hfprop/ionosphere"
	"hfprop/mathutil"
	"hfprop/muf"
	"hfprop/noise"
	"hfprop/solar"
)

// ErrNoTable is returned by New without a coefficient table.
var ErrNoTable = errors.New("engine: nil coefficient table")

// Options configures an Engine. Every field is optional.
type Options struct {
	// Field is the geomagnetic model; nil selects geomag.Default().
	Field    *geomag.Model
	Observer Observer
	Logger   *log.Logger
}

// Engine predicts circuits for the month of its coefficient table. It
// holds no per-call state and is safe for concurrent use.
type Engine struct {
	table    *coeffs.Table
	field    *geomag.Model
	observer Observer
	logger   *log.Logger
}

// New returns an engine over table, which must not be modified afterwards.
func New(table *coeffs.Table, opts Options) (*Engine, error) {
	if table == nil {
		return nil, ErrNoTable
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("engine: month %d: %w", table.Month, err)
	}
	e := &Engine{
		table:    table,
		field:    opts.Field,
		observer: opts.Observer,
		logger:   opts.Logger,
	}
	if e.field == nil {
		e.field = geomag.Default()
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	e.logf("Engine: month %d coefficients ready, geomagnetic pole %s (%.0f)", table.Month, e.field.Pole(), e.field.Year)
	return e, nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// call is the state of one Predict invocation.
type call struct {
	e      *Engine
	params Params
	path   *geo.Path
	utc    float64
	rx     geo.Point

	cps      []ionosphere.ControlPoint
	profiles []*ionosphere.Profile
	circuit  muf.Circuit
	// rays is the profile that limits the circuit; modes are traced on it.
	rays *ionosphere.Profile
	avg  pathAverages
	eMuf float64
	esl  float64

	txDBW  float64
	noise  noise.Model
	rxTime float64
	rxFoF2 float64
}

// Predict returns one Prediction per frequency for a circuit from
// params.Tx to rx at utc (fraction of a day). Frequencies are in MHz and
// must be ascending. Only configuration errors are returned; unsupported
// frequencies come back with NoPropagation set.
func (e *Engine) Predict(params Params, rx geo.Point, utc float64, freqs []float64) ([]Prediction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Month != e.table.Month {
		return nil, fmt.Errorf("%w: month %d but coefficients are for month %d", ErrInvalidParams, params.Month, e.table.Month)
	}
	if err := validateCall(rx, utc, freqs); err != nil {
		return nil, err
	}
	c := e.newCall(params, rx, utc)
	out := make([]Prediction, len(freqs))
	for i, f := range freqs {
		out[i] = c.predict(f)
		e.observer.Prediction(out[i])
	}
	return out, nil
}

func (e *Engine) newCall(params Params, rx geo.Point, utc float64) *call {
	c := &call{e: e, params: params, utc: utc, rx: rx}
	c.path = geo.NewPath(params.Tx, rx)
	if params.LongPath {
		c.path = c.path.Complement()
	}
	c.cps = controlPoints(c.path, utc, params.Month, e.field, e.table)
	e.observer.ControlPoints(c.cps)

	c.profiles = buildProfiles(c.cps, e.table, params.SSN, utc)
	e.observer.Profiles(c.profiles)

	c.avg = averages(c.cps, c.profiles)
	c.esl = excessLoss(c.avg.magLatDeg)

	c.circuit = muf.ComputeCircuit(c.profiles, c.path, params.MinTakeoff)
	e.observer.Circuit(c.circuit)
	if c.circuit.Muf <= 0 {
		e.logf("Engine: no layer supports %s to %s (%.0f km)", params.Tx, rx, c.path.DistanceKm())
	}
	c.rays = c.profiles[c.circuit.Layers[c.circuit.Limiting].Control]
	c.eMuf = c.circuit.Layers[ionosphere.E].Muf

	c.txDBW = mathutil.ToDB(params.TxPower)
	c.noise = noise.Model{Table: e.table, ManMade3MHz: params.ManMadeNoise}
	c.rxTime = solar.LocalTime(rx, utc)
	c.rxFoF2 = c.profiles[len(c.profiles)-1].F2.Fo
	return c
}

// predict runs the per-frequency pipeline: modes, budgets, selection,
// combination and, on long circuits, the long-distance blend.
func (c *call) predict(f float64) Prediction {
	nz := c.noise.Compute(c.rx, c.rxTime, f, c.rxFoF2)
	tx := c.params.TxAntennas.Select(f)
	rx := c.params.RxAntennas.Select(f)

	modes := c.findModes(f)
	results := make([]ModeResult, 0, len(modes))
	for _, m := range modes {
		info := c.circuit.Layers[m.Layer]
		results = append(results, ModeResult{Mode: m, Signal: c.budget(m, info, f, tx, rx, nz.Combined)})
	}
	sortModes(results)
	c.e.observer.Modes(f, results)

	short := c.reduce(f, results, nz)
	w := longWeight(c.path.DistanceKm())
	if w <= 0 {
		return short
	}
	long, ok := c.longModel(f, tx, rx, nz)
	if !ok {
		return short
	}
	return blend(short, long, w, c)
}

// findModes traces every ordinary mode from the circuit's minimum hop count
// up two more hops, then adds over-the-MUF modes for unsupported layers.
func (c *call) findModes(f float64) []muf.Mode {
	r := muf.NewReflectrix(c.rays, f, c.params.MinTakeoff)
	lo := c.circuit.MinHops()
	var modes []muf.Mode
	for hops := lo; hops <= lo+2; hops++ {
		modes = append(modes, r.FindModes(c.path.Distance, hops)...)
	}
	return append(modes, muf.OverMufModes(c.circuit, f, modes)...)
}

// reduce turns the evaluated modes into a Prediction.
func (c *call) reduce(f float64, results []ModeResult, nz noise.Distribution) Prediction {
	p := Prediction{
		Freq:  f,
		Noise: nz,
		Modes: results,
		Muf:   c.circuit.Muf,
		Fot:   c.circuit.Fot,
		Hpf:   c.circuit.Hpf,
	}
	if len(results) == 0 {
		c.noPropagation(&p)
		return p
	}
	best := results[0]
	p.Mode = best.Mode.Name()
	p.Layer = best.Mode.Layer
	p.Hops = best.Mode.Hops
	p.Elevation = best.Mode.Elevation
	p.OverMuf = best.Mode.OverMuf
	p.Signal = c.combine(f, results, nz.Combined)
	p.RequiredPowerMargin = c.requiredPowerMargin(p.Signal)
	p.ServiceProbability = c.serviceProbability(results)
	p.MultipathProbability = c.multipathProbability(results)
	return p
}

func (c *call) noPropagation(p *Prediction) {
	p.NoPropagation = true
	p.Signal = SignalInfo{
		SNR:      NoSignalSNR,
		Power:    NoSignalSNR + p.Noise.Combined.Median,
		SNRUpper: p.Noise.Combined.Lower,
		SNRLower: p.Noise.Combined.Upper,
	}
	p.Signal.Loss = c.txDBW - p.Signal.Power
	p.Signal.FieldStrength = p.Signal.Power + 20*mathutil.SafeLog10(p.Freq) + 107.2
	p.RequiredPowerMargin = c.requiredPowerMargin(p.Signal)
}
