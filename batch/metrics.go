package batch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus metrics of a batch propagation.
type Metrics struct {
	gatherer prometheus.Gatherer

	Bodies   prometheus.Counter
	Failures prometheus.Counter
	Points   prometheus.Counter
	Duration prometheus.Histogram
	Closest  *prometheus.GaugeVec
}

// NewMetrics registers the batch metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	m := &Metrics{
		gatherer: gatherer,
		Bodies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deflect_batch_bodies_total",
			Help: "Total number of bodies propagated.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deflect_batch_failures_total",
			Help: "Total number of bodies whose propagation failed.",
		}),
		Points: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deflect_batch_points_total",
			Help: "Total number of trajectory points generated.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deflect_batch_propagation_duration_seconds",
			Help:    "Propagation duration of a single body in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Closest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deflect_batch_closest_approach_km",
			Help: "Minimum Earth distance of each body over the propagation window.",
		}, []string{"body"}),
	}
	for _, c := range []prometheus.Collector{m.Bodies, m.Failures, m.Points, m.Duration, m.Closest} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return nil, errors.New("batch metrics already registered")
			}
			return nil, err
		}
	}
	return m, nil
}

// WriteTextfile writes the metrics in the text format read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return WriteTextfile(path, m.gatherer)
}

// WriteTextfile writes the metrics of the gatherer to path in the text exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
