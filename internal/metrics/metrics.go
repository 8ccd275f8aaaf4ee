// Package metrics exposes wizard activity as Prometheus collectors fed by
// the engine lifecycle hooks.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK         = "ok"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

// Collector holds the wizard collectors.
type Collector struct {
	events      *prometheus.CounterVec
	validations *prometheus.CounterVec
	expired     prometheus.Counter
	generation  *prometheus.HistogramVec
	gatherer    prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
// A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) (*Collector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitewizard_events_total",
				Help: "Flow events processed, by event and outcome.",
			},
			[]string{"event", "outcome"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitewizard_validation_failures_total",
				Help: "Rejected field values.",
			},
			[]string{"template", "field", "code"},
		),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitewizard_sessions_expired_total",
			Help: "Sessions dropped after their TTL.",
		}),
		generation: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitewizard_generation_duration_seconds",
				Help:    "Duration of generator calls.",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"template", "outcome"},
		),
		gatherer: reg,
	}
	for _, col := range []prometheus.Collector{c.events, c.validations, c.expired, c.generation} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			c.events.WithLabelValues(string(e.Event), outcome(e.Err)).Inc()
		},
		OnValidation: func(_ context.Context, e *domain.ValidationEvent) {
			c.validations.WithLabelValues(e.TemplateID, e.Error.Field, e.Error.Code).Inc()
		},
		OnGenerate: func(_ context.Context, e *domain.GenerationEvent) {
			c.generation.WithLabelValues(e.TemplateID, outcome(e.Err)).Observe(e.Duration.Seconds())
		},
		OnExpire: func(context.Context, string) {
			c.expired.Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrGenerationSuperseded):
		return OutcomeSuperseded
	case domain.Recoverable(err):
		return OutcomeRejected
	}
	return OutcomeError
}
