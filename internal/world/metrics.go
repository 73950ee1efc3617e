package world

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/folio/internal/memo"
	"github.com/roach88/folio/internal/vfs"
)

// Metrics holds the world's prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	lookups *prometheus.CounterVec
	reads   *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_world_slot_lookups_total",
				Help: "Slot cache lookups by cache and outcome",
			},
			[]string{"cache", "outcome"},
		),
		reads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_world_provider_reads_total",
				Help: "Provider reads by result",
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
	reg.MustRegister(m.lookups, m.reads)
	return m
}

func (m *Metrics) slotLookup(cache string, outcome memo.Outcome) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(cache, outcome.String()).Inc()
}

func (m *Metrics) providerRead(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		if kind := vfs.KindOf(err); kind != "" {
			result = strings.ToLower(string(kind))
		}
	}
	m.reads.WithLabelValues(result).Inc()
}
