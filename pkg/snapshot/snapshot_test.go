package snapshot_test

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/snapshot"
)

func startMerge(t *testing.T, shop *testutils.Shop, c *testutils.Customer) *managed.ParameterNegotiationModel {
	t.Helper()
	a, ok := managed.LookupAction(context.Background(), shop.Env, shop.Adapt(t, c), "mergeOrders", domain.WhereObjectForms)
	require.True(t, ok)
	return a.StartParameterNegotiation(context.Background())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	orderSpec := func(shop *testutils.Shop) *metamodel.ObjectSpec {
		s, _ := shop.Registry.Spec(testutils.TypeOrder)
		return s
	}
	o1 := &testutils.Order{Product: "apple", Quantity: 1}
	o2 := &testutils.Order{Product: "pear", Quantity: 2}

	tests := []struct {
		name   string
		orders []*testutils.Order
		note   any
	}{
		{"Two Elements And A Note", []*testutils.Order{o1, o2}, "rush"},
		{"One Element Stays Plural", []*testutils.Order{o1}, "slow"},
		{"Empty Plural And Empty Scalar", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shop := testutils.NewShop(t)
			ctx := context.Background()
			c := &testutils.Customer{Name: "Ada"}
			model := startMerge(t, shop, c)

			var elems []metamodel.ManagedObject
			for _, o := range tt.orders {
				elems = append(elems, shop.Adapt(t, o))
			}
			model.ParamModel(0).SetValue(metamodel.Packed(orderSpec(shop), elems))
			if tt.note != nil {
				model.ParamModel(1).SetValue(shop.Value(t, "string", tt.note))
			}
			model.ActivateValidationFeedback()

			snap, err := snapshot.Create(model)
			require.NoError(t, err)
			assert.True(t, snap.Params[0].Plural)
			assert.False(t, snap.Params[1].Plural)

			data, err := snapshot.Marshal(snap)
			require.NoError(t, err)
			decoded, err := snapshot.Unmarshal(data)
			require.NoError(t, err)

			restored, err := snapshot.RestoreFor(ctx, shop.Env, decoded, domain.WhereObjectForms)
			require.NoError(t, err)

			orders := restored.ParamModel(0).Value()
			assert.True(t, orders.IsPacked(), "plural stays plural")
			assert.Len(t, orders.Elements(), len(tt.orders))
			for i, o := range tt.orders {
				assert.Same(t, o, orders.Elements()[i].Pojo)
			}

			note := restored.ParamModel(1).Value()
			assert.False(t, note.IsPacked(), "scalar stays scalar")
			assert.Equal(t, tt.note, note.Pojo)

			assert.Same(t, c, restored.Head().Owner.Pojo)
			assert.False(t, restored.IsValidationFeedbackActive(), "feedback starts over")
			assert.False(t, restored.ParamModel(0).IsDirty())
		})
	}
}

func TestSnapshot_Restore_Mismatch(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	c := &testutils.Customer{}
	snap, err := snapshot.Create(startMerge(t, shop, c))
	require.NoError(t, err)

	greet, ok := managed.LookupAction(ctx, shop.Env, shop.Adapt(t, c), "greet", domain.WhereObjectForms)
	require.True(t, ok)
	_, err = snapshot.Restore(ctx, greet, snap)
	assert.ErrorIs(t, err, domain.ErrSnapshotMismatch)

	merge, _ := managed.LookupAction(ctx, shop.Env, shop.Adapt(t, c), "mergeOrders", domain.WhereObjectForms)
	snap.Params[0].Plural = false
	_, err = snapshot.Restore(ctx, merge, snap)
	assert.ErrorIs(t, err, domain.ErrSnapshotMismatch)

	snap.Params = snap.Params[:1]
	_, err = snapshot.Restore(ctx, merge, snap)
	assert.ErrorIs(t, err, domain.ErrSnapshotMismatch)
}

func TestSnapshot_UnknownOwner(t *testing.T) {
	shop := testutils.NewShop(t)
	snap := &domain.PendingParams{
		ActionID: "mergeOrders",
		Owner:    domain.Bookmark{LogicalTypeName: testutils.TypeCustomer, Identifier: "gone"},
	}
	_, err := snapshot.RestoreFor(context.Background(), shop.Env, snap, domain.WhereObjectForms)
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestSnapshot_ValueRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("restored values equal the pending values by content", prop.ForAll(
		func(product string, quantity int) bool {
			shop := testutils.NewShop(t)
			ctx := context.Background()
			a, ok := managed.LookupAction(ctx, shop.Env, shop.Adapt(t, &testutils.Customer{}), "placeOrder", domain.WhereObjectForms)
			if !ok {
				return false
			}
			model := a.StartParameterNegotiation(ctx)
			model.ParamModel(0).SetValue(shop.Value(t, "string", product))
			model.ParamModel(1).SetValue(shop.Value(t, "int", quantity))

			snap, err := snapshot.Create(model)
			if err != nil {
				return false
			}
			restored, err := snapshot.Restore(ctx, a, snap)
			if err != nil {
				return false
			}
			return restored.Value(0).Pojo == product && restored.Value(1).Pojo == quantity
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
