// Package otelhooks exports mutation outcomes as OpenTelemetry counters,
// attributed by verb.
package otelhooks

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/snapmut"
)

type Hooks struct {
	applied   metric.Int64Counter
	fallbacks metric.Int64Counter
	outages   metric.Int64Counter
}

var _ snapmut.Hooks = (*Hooks)(nil)

// New builds the counters on the given meter.
func New(meter metric.Meter) (*Hooks, error) {
	applied, err := meter.Int64Counter(
		"snapmut.mutations.applied",
		metric.WithDescription("Mutations applied and stored"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"snapmut.write.fallbacks",
		metric.WithDescription("Mutations whose store write failed and degraded to an invalidate"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	outages, err := meter.Int64Counter(
		"snapmut.fallback.outages",
		metric.WithDescription("Mutations where both the write and the fallback invalidate failed"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	return &Hooks{applied: applied, fallbacks: fallbacks, outages: outages}, nil
}

// Hook signatures carry no context, so counters record against Background.

func (h *Hooks) Applied(_ string, verb snapmut.Verb, _ int) {
	h.applied.Add(context.Background(), 1, verbAttr(verb))
}

func (h *Hooks) WriteFallback(_ string, verb snapmut.Verb, _ error) {
	h.fallbacks.Add(context.Background(), 1, verbAttr(verb))
}

func (h *Hooks) FallbackOutage(_ string, verb snapmut.Verb, _, _ error) {
	h.outages.Add(context.Background(), 1, verbAttr(verb))
}

func verbAttr(verb snapmut.Verb) metric.AddOption {
	return metric.WithAttributes(attribute.String("verb", string(verb)))
}
