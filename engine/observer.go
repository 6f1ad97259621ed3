package engine

import (
	"log"

	"hfprop/geo"
	"hfprop/ionosphere"
	"hfprop/mathutil"
	"hfprop/muf"
)

// Observer receives the intermediate results of a Predict call. Methods
// are called synchronously from the calling goroutine and must not retain
// or modify their arguments.
type Observer interface {
	ControlPoints(cps []ionosphere.ControlPoint)
	Profiles(profiles []*ionosphere.Profile)
	Circuit(c muf.Circuit)
	Modes(freq float64, modes []ModeResult)
	Prediction(p Prediction)
}

type nopObserver struct{}

func (nopObserver) ControlPoints([]ionosphere.ControlPoint) {}
func (nopObserver) Profiles([]*ionosphere.Profile)          {}
func (nopObserver) Circuit(muf.Circuit)                     {}
func (nopObserver) Modes(float64, []ModeResult)             {}
func (nopObserver) Prediction(Prediction)                   {}

// LogObserver writes one line per stage.
type LogObserver struct {
	Logger *log.Logger
}

func (o LogObserver) printf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}

func (o LogObserver) ControlPoints(cps []ionosphere.ControlPoint) {
	for i, cp := range cps {
		o.printf("Engine: control point %d at %s, %.0f km, zenith %.1f deg, maglat %.1f deg, land=%t",
			i, cp.Location, cp.Distance*geo.EarthRadiusKm, mathutil.RadToDeg(cp.Solar.Zenith), mathutil.RadToDeg(cp.Mag.MagLat), cp.Land)
	}
}

func (o LogObserver) Profiles(profiles []*ionosphere.Profile) {
	for i, p := range profiles {
		o.printf("Engine: profile %d foE=%.2f foF1=%.2f foF2=%.2f hmF2=%.0f AI=%.2f",
			i, p.E.Fo, p.F1.Fo, p.F2.Fo, p.F2.Hm, p.AbsorptionIndex)
	}
}

func (o LogObserver) Circuit(c muf.Circuit) {
	for _, info := range c.Layers {
		if info.Present() {
			o.printf("Engine: %s MUF %.2f MHz over %d hop(s), elevation %.1f deg",
				info.Layer, info.Muf, info.Hops, mathutil.RadToDeg(info.Ref.Elevation))
		}
	}
	o.printf("Engine: circuit MUF %.2f FOT %.2f HPF %.2f limited by %s", c.Muf, c.Fot, c.Hpf, c.Limiting)
}

func (o LogObserver) Modes(freq float64, modes []ModeResult) {
	for _, m := range modes {
		o.printf("Engine: %.2f MHz mode %s elev %.1f deg loss %.1f dB snr %.1f rel %.2f over_muf=%t",
			freq, m.Mode.Name(), mathutil.RadToDeg(m.Mode.Elevation), m.Signal.Loss, m.Signal.SNR, m.Signal.Reliability, m.Mode.OverMuf)
	}
}

func (o LogObserver) Prediction(p Prediction) {
	if p.NoPropagation {
		o.printf("Engine: %.2f MHz no propagation", p.Freq)
		return
	}
	o.printf("Engine: %.2f MHz -> %s snr %.1f dB rel %.2f svc %.2f mpath %.2f",
		p.Freq, p.Mode, p.Signal.SNR, p.Signal.Reliability, p.ServiceProbability, p.MultipathProbability)
}
