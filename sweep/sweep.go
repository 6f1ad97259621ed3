// Package sweep runs an engine over a grid of receivers and hours in
// parallel. The engine is shared; every job owns its own Predict call.
package sweep

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"hfprop/engine"
	"hfprop/geo"
	"hfprop/mathutil"
)

// ErrEmptyGrid is returned when a grid has no receivers, hours or frequencies.
var ErrEmptyGrid = errors.New("sweep: empty grid")

// Grid is the cross product of receivers and UTC hours; every cell is
// predicted at all Freqs.
type Grid struct {
	Receivers []geo.Point
	Freqs     []float64
	// Hours are UTC hours in [0, 24].
	Hours []float64
}

func (g Grid) validate() error {
	if len(g.Receivers) == 0 || len(g.Freqs) == 0 || len(g.Hours) == 0 {
		return fmt.Errorf("%w: %d receivers, %d freqs, %d hours", ErrEmptyGrid, len(g.Receivers), len(g.Freqs), len(g.Hours))
	}
	for _, h := range g.Hours {
		if math.IsNaN(h) || h < 0 || h > 24 {
			return fmt.Errorf("sweep: hour %v outside [0, 24]", h)
		}
	}
	return nil
}

// Box returns receivers on a latitude/longitude lattice, in degrees, from
// the south-west corner northward then eastward. Points past the north or
// east edge are dropped.
func Box(latMin, latMax, lonMin, lonMax, step float64) []geo.Point {
	if step <= 0 || latMax < latMin || lonMax < lonMin {
		return nil
	}
	var pts []geo.Point
	for lon := lonMin; lon <= lonMax+1e-9; lon += step {
		for lat := latMin; lat <= latMax+1e-9; lat += step {
			pts = append(pts, geo.PointFromDegrees(mathutil.Clamp(lat, -90, 90), lon))
		}
	}
	return pts
}

// Cell is the result for one receiver at one hour.
type Cell struct {
	Receiver    geo.Point
	Hour        float64
	Predictions []engine.Prediction
}

// Key is a stable identity for the cell's receiver and hour, usable to
// join the output of separate sweeps.
func Key(rx geo.Point, hour float64) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(rx.Lat))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(rx.Lon))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(hour))
	return xxh3.Hash(buf[:])
}

func (c Cell) Key() uint64 {
	return Key(c.Receiver, c.Hour)
}

// Options tunes Run. Zero values select GOMAXPROCS workers, no timeout,
// no metrics and no logging.
type Options struct {
	Workers int
	Timeout time.Duration
	Metrics *Metrics
	Logger  *log.Logger
}

// Run predicts every cell of grid. Cells come back receiver-major in grid
// order regardless of scheduling. Cancellation stops scheduling new cells
// and returns the context error; the first prediction error cancels the
// rest and is returned.
func Run(ctx context.Context, e *engine.Engine, params engine.Params, grid Grid, opts Options) ([]Cell, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cells := make([]Cell, len(grid.Receivers)*len(grid.Hours))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	start := time.Now()

schedule:
	for r, rx := range grid.Receivers {
		for h, hour := range grid.Hours {
			if gctx.Err() != nil {
				break schedule
			}
			idx := r*len(grid.Hours) + h
			rx, hour := rx, hour
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				began := time.Now()
				preds, err := e.Predict(params, rx, hour/24, grid.Freqs)
				if err != nil {
					return fmt.Errorf("sweep: receiver %s hour %v: %w", rx, hour, err)
				}
				cells[idx] = Cell{Receiver: rx, Hour: hour, Predictions: preds}
				opts.Metrics.observe(cells[idx], time.Since(began))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		opts.Logger.Printf("Sweep: %d cells x %d freqs in %s with %d workers",
			len(cells), len(grid.Freqs), time.Since(start).Round(time.Millisecond), workers)
	}
	return cells, nil
}
