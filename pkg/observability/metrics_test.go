package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/interaction"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	shop := testutils.NewShop(t, managed.WithHooks(metrics.Hooks()))
	ctx := context.Background()
	c := &testutils.Customer{Name: "Ada"}
	owner := shop.Adapt(t, c)

	interaction.StartAction(ctx, shop.Env, owner, "placeOrder", domain.WhereObjectForms).
		CheckSemanticConstraint(ctx, domain.ConstraintSafe)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Vetoes.WithLabelValues("action", "ACTION_NOT_SAFE")))

	summary := interaction.StartAction(ctx, shop.Env, owner, "summary", domain.WhereObjectForms)
	_, err = summary.InvokeWith(ctx, summary.StartParameterNegotiation(ctx))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Invocations.WithLabelValues(testutils.TypeCustomer, "summary", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Duration))

	interaction.StartProperty(ctx, shop.Env, owner, "discount", domain.WhereObjectForms).
		ModifyProperty(ctx, func(*managed.Property) metamodel.ManagedObject { return shop.Value(t, "int", 5) })
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Modifications.WithLabelValues(testutils.TypeCustomer, "discount")))
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	second, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	second.Vetoes.WithLabelValues("property", "INVALID").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.Vetoes.WithLabelValues("property", "INVALID")))
}

func TestCombine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var calls []string
	first := domain.LifecycleHooks{OnVeto: func(context.Context, *domain.VetoEvent) { calls = append(calls, "first") }}
	second := domain.LifecycleHooks{OnVeto: func(context.Context, *domain.VetoEvent) { calls = append(calls, "second") }}

	hooks := observability.Combine(first, domain.LifecycleHooks{}, second, observability.LoggingHooks(logger))
	hooks.EmitVeto(context.Background(), "shop.Customer", domain.MemberAction, "placeOrder", domain.ActionNotSafe("placeOrder"))

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Contains(t, buf.String(), "veto_type=ACTION_NOT_SAFE")
	assert.NotNil(t, hooks.OnInvoke, "logging hooks fill the remaining slots")
}
