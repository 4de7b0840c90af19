// Package promhooks exports mutation outcomes as Prometheus counters,
// labeled by verb.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/snapmut"
)

type Hooks struct {
	applied   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	outages   *prometheus.CounterVec
}

var _ snapmut.Hooks = (*Hooks)(nil)

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapmut_mutations_applied_total",
		Help: "Mutations applied and stored, by verb",
	}, []string{"verb"})

	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapmut_write_fallbacks_total",
		Help: "Mutations whose store write failed and degraded to an invalidate, by verb",
	}, []string{"verb"})

	outages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapmut_fallback_outages_total",
		Help: "Mutations where both the write and the fallback invalidate failed, by verb",
	}, []string{"verb"})

	reg.MustRegister(applied, fallbacks, outages)

	return &Hooks{applied: applied, fallbacks: fallbacks, outages: outages}
}

func (h *Hooks) Applied(_ string, verb snapmut.Verb, _ int) {
	h.applied.WithLabelValues(string(verb)).Inc()
}

func (h *Hooks) WriteFallback(_ string, verb snapmut.Verb, _ error) {
	h.fallbacks.WithLabelValues(string(verb)).Inc()
}

func (h *Hooks) FallbackOutage(_ string, verb snapmut.Verb, _, _ error) {
	h.outages.WithLabelValues(string(verb)).Inc()
}
