package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hfprop/geo"
)

var defaultFreqs = []float64{3.6, 5.3, 7.1, 10.1, 14.1, 18.1, 21.1, 24.9, 28.2}

type predictOptions struct {
	tx, rx   string
	month    int
	ssn      float64
	utc      float64
	freqs    []float64
	power    float64
	longPath bool
	asJSON   bool
}

func newPredictCmd(a *app) *cobra.Command {
	now := time.Now().UTC()
	o := predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict one circuit at one hour",
		Example: `  hfprop predict --tx IM75 --rx KN04 --month 6 --ssn 100 --utc 1
  hfprop predict --tx 35.8,-5.9 --rx 44.9,20.5 --freqs 7.1,11.85,14.1 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPredict(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.tx, "tx", "", "transmitter as lat,lon or Maidenhead locator")
	f.StringVar(&o.rx, "rx", "", "receiver as lat,lon or Maidenhead locator")
	f.IntVar(&o.month, "month", int(now.Month()), "month 1..12")
	f.Float64Var(&o.ssn, "ssn", 100, "smoothed sunspot number")
	f.Float64Var(&o.utc, "utc", float64(now.Hour()), "UTC hour 0..24")
	f.Float64SliceVar(&o.freqs, "freqs", defaultFreqs, "ascending frequencies, MHz")
	f.Float64Var(&o.power, "power", 0, "transmitter power, W (default from config)")
	f.BoolVar(&o.longPath, "long-path", false, "use the long great-circle path")
	f.BoolVar(&o.asJSON, "json", false, "write JSON lines even on a terminal")
	_ = cmd.MarkFlagRequired("tx")
	_ = cmd.MarkFlagRequired("rx")
	return cmd
}

// Purpose: Run one circuit prediction and render it.
// Key aspects: Flags override the config prediction block; output is a
// table on a terminal and JSON lines otherwise.
// Upstream: predict command.
// Downstream: config.Params, engine.Predict.
func (a *app) runPredict(cmd *cobra.Command, o predictOptions) error {
	tx, err := geo.ParsePoint(o.tx)
	if err != nil {
		return fmt.Errorf("--tx: %w", err)
	}
	rx, err := geo.ParsePoint(o.rx)
	if err != nil {
		return fmt.Errorf("--rx: %w", err)
	}
	params, err := a.cfg.Params(tx, o.month, o.ssn)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("power") {
		params.TxPower = o.power
	}
	if o.longPath {
		params.LongPath = true
	}
	if err := params.Validate(); err != nil {
		return err
	}

	e, closer, err := a.engine(cmd.Context(), o.month)
	if err != nil {
		return err
	}
	defer closer()

	preds, err := e.Predict(params, rx, o.utc/24, o.freqs)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if o.asJSON || !isTerminal(out) {
		return writePredictionsJSON(out, preds)
	}
	path := "short"
	if params.LongPath {
		path = "long"
	}
	header := fmt.Sprintf("%s -> %s  %s path  month %d  SSN %.0f  %05.2f UTC  %s",
		tx, rx, path, o.month, o.ssn, o.utc, formatPower(params.TxPower))
	return writePredictionsTable(out, header, preds)
}
