package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"hfprop/geo"
	"hfprop/sweep"
)

type sweepOptions struct {
	tx      string
	month   int
	ssn     float64
	box     string
	step    float64
	freqs   []float64
	hours   []float64
	out     string
	workers int
}

func newSweepCmd(a *app) *cobra.Command {
	o := sweepOptions{}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Predict a receiver grid over several hours",
		Example: `  hfprop sweep --tx IM75 --month 6 --box 30,60,-20,40 --step 5 --hours 0,6,12,18 --out grid.jsonl`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSweep(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.tx, "tx", "", "transmitter as lat,lon or Maidenhead locator")
	f.IntVar(&o.month, "month", int(time.Now().UTC().Month()), "month 1..12")
	f.Float64Var(&o.ssn, "ssn", 100, "smoothed sunspot number")
	f.StringVar(&o.box, "box", "", "receiver area as latMin,latMax,lonMin,lonMax in degrees")
	f.Float64Var(&o.step, "step", 5, "grid step, degrees")
	f.Float64SliceVar(&o.freqs, "freqs", []float64{7.1, 14.1, 21.1}, "ascending frequencies, MHz")
	f.Float64SliceVar(&o.hours, "hours", []float64{0, 6, 12, 18}, "UTC hours 0..24")
	f.StringVarP(&o.out, "out", "o", "", "output file (default stdout)")
	f.IntVar(&o.workers, "workers", 0, "parallel predictions (default from config)")
	_ = cmd.MarkFlagRequired("tx")
	_ = cmd.MarkFlagRequired("box")
	return cmd
}

func parseBox(s string) (latMin, latMax, lonMin, lonMax float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("invalid box %q: want latMin,latMax,lonMin,lonMax", s)
	}
	var v [4]float64
	for i, p := range parts {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid box %q: %w", s, err)
		}
	}
	if v[0] < -90 || v[1] > 90 || v[0] > v[1] || v[2] > v[3] {
		return 0, 0, 0, 0, fmt.Errorf("invalid box %q: bounds out of order or range", s)
	}
	return v[0], v[1], v[2], v[3], nil
}

// Purpose: Run a grid sweep and stream JSON lines.
// Key aspects: Metrics go to a fresh registry and are exported as a
// textfile when metrics.textfile_path is set.
// Upstream: sweep command.
// Downstream: sweep.Run, sweep.Metrics.WriteTextfile.
func (a *app) runSweep(cmd *cobra.Command, o sweepOptions) error {
	tx, err := geo.ParsePoint(o.tx)
	if err != nil {
		return fmt.Errorf("--tx: %w", err)
	}
	latMin, latMax, lonMin, lonMax, err := parseBox(o.box)
	if err != nil {
		return err
	}
	grid := sweep.Grid{
		Receivers: sweep.Box(latMin, latMax, lonMin, lonMax, o.step),
		Freqs:     o.freqs,
		Hours:     o.hours,
	}
	params, err := a.cfg.Params(tx, o.month, o.ssn)
	if err != nil {
		return err
	}

	var metrics *sweep.Metrics
	if a.cfg.Metrics.TextfilePath != "" {
		if metrics, err = sweep.NewMetrics(prometheus.NewRegistry()); err != nil {
			return err
		}
	}
	workers := a.cfg.Sweep.Workers
	if o.workers > 0 {
		workers = o.workers
	}

	e, closer, err := a.engine(cmd.Context(), o.month)
	if err != nil {
		return err
	}
	defer closer()

	cells, err := sweep.Run(cmd.Context(), e, params, grid, sweep.Options{
		Workers: workers,
		Timeout: time.Duration(a.cfg.Sweep.TimeoutSeconds) * time.Second,
		Metrics: metrics,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	dest := "stdout"
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", o.out, err)
		}
		defer f.Close()
		w, dest = f, o.out
	}
	bw := bufio.NewWriter(w)
	n, err := writeSweepJSON(bw, cells)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	a.logger.Printf("Sweep: wrote %s records for %s receivers to %s",
		humanize.Comma(int64(n)), humanize.Comma(int64(len(grid.Receivers))), dest)

	if metrics != nil {
		if err := metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
