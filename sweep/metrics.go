package sweep

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts sweep work. All methods are safe on a nil receiver.
type Metrics struct {
	gatherer prometheus.Gatherer

	Predictions *prometheus.CounterVec
	Jobs        prometheus.Counter
	JobDuration prometheus.Histogram
	Reliability prometheus.Histogram
}

// NewMetrics registers the sweep collectors against reg, defaulting to the
// global registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	predictions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hfprop_predictions_total",
		Help: "Per-frequency predictions produced by sweeps, labeled by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	jobs, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hfprop_sweep_jobs_total",
		Help: "Receiver and hour cells evaluated by sweeps.",
	}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hfprop_sweep_job_duration_seconds",
		Help:    "Time to predict one receiver and hour cell.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	}))
	if err != nil {
		return nil, err
	}
	reliability, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hfprop_prediction_reliability",
		Help:    "Circuit reliability of sweep predictions.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
	}))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		gatherer:    gatherer,
		Predictions: predictions,
		Jobs:        jobs,
		JobDuration: duration,
		Reliability: reliability,
	}, nil
}

// register returns the already-registered collector of the same type when
// one exists, so that repeated sweeps share counters.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("sweep: collector already registered with incompatible type: %w", err)
		}
		var zero C
		return zero, err
	}
	return c, nil
}

func (m *Metrics) observe(cell Cell, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Jobs.Inc()
	m.JobDuration.Observe(elapsed.Seconds())
	for _, p := range cell.Predictions {
		if p.NoPropagation {
			m.Predictions.WithLabelValues("none").Inc()
			continue
		}
		m.Predictions.WithLabelValues("propagation").Inc()
		m.Reliability.Observe(p.Signal.Reliability)
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.gatherer)
}
