package batch

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zsiec/tsprobe/internal/mpegts"
)

// Metrics collects per-run measurements in a private registry so a batch
// run can be exported as a node_exporter textfile.
type Metrics struct {
	reg      *prometheus.Registry
	files    *prometheus.CounterVec
	scan     prometheus.Histogram
	duration *prometheus.GaugeVec
	wrapped  prometheus.Counter
}

// NewMetrics creates and registers the batch collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsprobe",
			Name:      "files_total",
			Help:      "Files measured, by result.",
		}, []string{"result"}),
		scan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tsprobe",
			Name:      "scan_seconds",
			Help:      "Wall time spent measuring one file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tsprobe",
			Name:      "media_duration_seconds",
			Help:      "Measured timestamp duration of each file.",
		}, []string{"path"}),
		wrapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tsprobe",
			Name:      "timestamp_wraps_total",
			Help:      "Files whose last timestamp was below the first.",
		}),
	}
	m.reg.MustRegister(m.files, m.scan, m.duration, m.wrapped)
	return m
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteFile writes the current values in text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

func (m *Metrics) observe(res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scan.Observe(elapsed.Seconds())
	switch {
	case res.Err == nil:
		m.files.WithLabelValues("ok").Inc()
		m.duration.WithLabelValues(res.Path).Set(res.Duration.Seconds())
		if res.Duration.Wrapped {
			m.wrapped.Inc()
		}
	case errors.Is(res.Err, mpegts.ErrNotFound):
		m.files.WithLabelValues("not_found").Inc()
	default:
		m.files.WithLabelValues("error").Inc()
	}
}
