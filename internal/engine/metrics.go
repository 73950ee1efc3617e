package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the driver's prometheus collectors.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	builds   *prometheus.CounterVec
	passes   prometheus.Histogram
	duration *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_engine_builds_total",
				Help: "Total number of builds by terminal phase",
			},
			[]string{"phase"},
		),
		passes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "folio_engine_layout_passes",
				Help:    "Number of layout passes per build",
				Buckets: prometheus.LinearBuckets(1, 1, 8),
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folio_engine_build_duration_seconds",
				Help:    "Duration of builds in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}
}

// MustRegister registers every collector with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) *Metrics {
	if m == nil {
		return nil
	}
	reg.MustRegister(m.builds, m.passes, m.duration)
	return m
}

func (m *Metrics) observe(phase Phase, passes int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(phase.String()).Inc()
	result := "success"
	if phase == PhaseFailed {
		result = "failure"
	} else {
		m.passes.Observe(float64(passes))
	}
	m.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}
