package observability

import (
	"context"
	"errors"
	"strconv"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the interaction collectors.
type Metrics struct {
	Vetoes        *prometheus.CounterVec
	Invocations   *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Modifications *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Vetoes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_vetoes_total",
				Help: "Total number of vetoed interactions",
			},
			[]string{"member_type", "veto_type"},
		),
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_invocations_total",
				Help: "Total number of action invocations",
			},
			[]string{"owner_type", "action", "is_error"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_invocation_duration_seconds",
				Help:    "Duration of action invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		Modifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_modifications_total",
				Help: "Total number of property modifications",
			},
			[]string{"owner_type", "property"},
		),
	}

	var err error
	m.Vetoes, err = register(reg, m.Vetoes)
	if err != nil {
		return nil, err
	}
	m.Invocations, err = register(reg, m.Invocations)
	if err != nil {
		return nil, err
	}
	m.Duration, err = register(reg, m.Duration)
	if err != nil {
		return nil, err
	}
	m.Modifications, err = register(reg, m.Modifications)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnVeto: func(_ context.Context, e *domain.VetoEvent) {
			m.Vetoes.WithLabelValues(string(e.MemberType), e.VetoType.String()).Inc()
		},
		OnInvokeReturn: func(_ context.Context, e *domain.InvocationEvent) {
			m.Invocations.WithLabelValues(e.OwnerType, e.MemberID, strconv.FormatBool(e.IsError)).Inc()
			m.Duration.WithLabelValues(e.MemberID).Observe(e.Duration.Seconds())
		},
		OnModify: func(_ context.Context, e *domain.ModificationEvent) {
			m.Modifications.WithLabelValues(e.OwnerType, e.MemberID).Inc()
		},
	}
}
