package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"

	"hfprop/engine"
	"hfprop/mathutil"
	"hfprop/sweep"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PredictionRecord is the JSON shape of one frequency result.
type PredictionRecord struct {
	Freq                 float64 `json:"freq_mhz"`
	Mode                 string  `json:"mode"`
	Hops                 int     `json:"hops"`
	ElevationDeg         float64 `json:"elevation_deg"`
	OverMuf              bool    `json:"over_muf,omitempty"`
	Muf                  float64 `json:"muf_mhz"`
	Fot                  float64 `json:"fot_mhz"`
	Hpf                  float64 `json:"hpf_mhz"`
	Loss                 float64 `json:"loss_db"`
	Power                float64 `json:"power_dbw"`
	FieldStrength        float64 `json:"field_dbuv"`
	SNR                  float64 `json:"snr_db"`
	SNRUpper             float64 `json:"snr_upper_db"`
	SNRLower             float64 `json:"snr_lower_db"`
	Noise                float64 `json:"noise_dbw"`
	Reliability          float64 `json:"reliability"`
	RequiredPowerMargin  float64 `json:"required_power_margin_db"`
	ServiceProbability   float64 `json:"service_probability"`
	MultipathProbability float64 `json:"multipath_probability"`
	LongWeight           float64 `json:"long_weight,omitempty"`
	NoPropagation        bool    `json:"no_propagation,omitempty"`
}

// sweepRecord is one JSON line of sweep output.
type sweepRecord struct {
	Key  uint64  `json:"key"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Hour float64 `json:"hour"`
	PredictionRecord
}

func newPredictionRecord(p engine.Prediction) PredictionRecord {
	return PredictionRecord{
		Freq:                 p.Freq,
		Mode:                 p.Mode,
		Hops:                 p.Hops,
		ElevationDeg:         round(mathutil.RadToDeg(p.Elevation), 1),
		OverMuf:              p.OverMuf,
		Muf:                  round(p.Muf, 2),
		Fot:                  round(p.Fot, 2),
		Hpf:                  round(p.Hpf, 2),
		Loss:                 round(p.Signal.Loss, 1),
		Power:                round(p.Signal.Power, 1),
		FieldStrength:        round(p.Signal.FieldStrength, 1),
		SNR:                  round(p.Signal.SNR, 1),
		SNRUpper:             round(p.Signal.SNRUpper, 1),
		SNRLower:             round(p.Signal.SNRLower, 1),
		Noise:                round(p.Noise.Combined.Median, 1),
		Reliability:          round(p.Signal.Reliability, 3),
		RequiredPowerMargin:  round(p.RequiredPowerMargin, 1),
		ServiceProbability:   round(p.ServiceProbability, 3),
		MultipathProbability: round(p.MultipathProbability, 3),
		LongWeight:           round(p.LongWeight, 3),
		NoPropagation:        p.NoPropagation,
	}
}

// round also maps non-finite values to 0, which JSON cannot carry.
func round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	k := math.Pow(10, float64(digits))
	return math.Round(v*k) / k
}

// isTerminal reports whether w is an interactive console.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writePredictionsJSON(w io.Writer, preds []engine.Prediction) error {
	enc := json.NewEncoder(w)
	for _, p := range preds {
		if err := enc.Encode(newPredictionRecord(p)); err != nil {
			return err
		}
	}
	return nil
}

// Purpose: Render predictions as an aligned table for terminals.
// Key aspects: Frequencies without propagation show "-" for the mode.
// Upstream: predict command.
// Downstream: tabwriter.
func writePredictionsTable(w io.Writer, header string, preds []engine.Prediction) error {
	fmt.Fprintln(w, header)
	if len(preds) > 0 {
		p := preds[0]
		fmt.Fprintf(w, "MUF %.2f MHz  FOT %.2f MHz  HPF %.2f MHz\n\n", p.Muf, p.Fot, p.Hpf)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MHz\tMode\tElev\tSNR\tREL\tSDBW\tMargin\tSPRB\tMPROB\t")
	for _, p := range preds {
		mode := p.Mode
		if p.NoPropagation {
			mode = "-"
		} else if p.OverMuf {
			mode += "*"
		}
		fmt.Fprintf(tw, "%.2f\t%s\t%.1f\t%.0f\t%.2f\t%.0f\t%.0f\t%.2f\t%.2f\t\n",
			p.Freq, mode, mathutil.RadToDeg(p.Elevation), p.Signal.SNR, p.Signal.Reliability,
			p.Signal.Power, p.RequiredPowerMargin, p.ServiceProbability, p.MultipathProbability)
	}
	return tw.Flush()
}

// writeSweepJSON writes one line per cell and frequency and returns the
// number of records.
func writeSweepJSON(w io.Writer, cells []sweep.Cell) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	for _, c := range cells {
		lat, lon := c.Receiver.Degrees()
		for _, p := range c.Predictions {
			rec := sweepRecord{
				Key:              c.Key(),
				Lat:              round(lat, 4),
				Lon:              round(lon, 4),
				Hour:             c.Hour,
				PredictionRecord: newPredictionRecord(p),
			}
			if err := enc.Encode(rec); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func formatPower(watts float64) string {
	return humanize.SIWithDigits(watts, 1, "W")
}
