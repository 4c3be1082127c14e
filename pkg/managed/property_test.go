package managed_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

func lookupProperty(t *testing.T, shop *testutils.Shop, owner any, id string) *managed.Property {
	t.Helper()
	p, ok := managed.LookupProperty(context.Background(), shop.Env, shop.Adapt(t, owner), id, domain.WhereObjectForms)
	require.True(t, ok, "property %s not found", id)
	return p
}

func TestProperty_ModifyRejectsInvalidValue(t *testing.T) {
	shop := testutils.NewShop(t)
	c := &testutils.Customer{Discount: 10}
	p := lookupProperty(t, shop, c, "discount")
	assert.Equal(t, 10, p.PropertyValue().Pojo)

	veto := p.ModifyProperty(context.Background(), shop.Value(t, "int", -5))
	require.NotNil(t, veto)
	assert.Equal(t, domain.VetoInvalid, veto.Type())
	assert.Equal(t, "discount must not be negative", veto.ReasonAsString())
	assert.Equal(t, 10, c.Discount)
	assert.Equal(t, 10, p.PropertyValue().Pojo)
}

func TestProperty_ModifyRefreshesValue(t *testing.T) {
	var mods []*domain.ModificationEvent
	shop := testutils.NewShop(t, managed.WithHooks(domain.LifecycleHooks{
		OnModify: func(_ context.Context, e *domain.ModificationEvent) { mods = append(mods, e) },
	}))
	c := &testutils.Customer{Discount: 10}
	p := lookupProperty(t, shop, c, "discount")
	_ = p.PropertyValue()
	require.True(t, p.ObservablePropValue().IsMemoized())

	require.Nil(t, p.ModifyProperty(context.Background(), shop.Value(t, "int", 15)))
	assert.False(t, p.ObservablePropValue().IsMemoized())
	assert.Equal(t, 15, p.PropertyValue().Pojo)
	assert.Same(t, c, p.Owner().Pojo)

	require.Len(t, mods, 1)
	assert.False(t, mods[0].OwnerReplaced)
}

func TestProperty_ImmutableOwnerIsReplaced(t *testing.T) {
	var mods []*domain.ModificationEvent
	shop := testutils.NewShop(t, managed.WithHooks(domain.LifecycleHooks{
		OnModify: func(_ context.Context, e *domain.ModificationEvent) { mods = append(mods, e) },
	}))
	p := lookupProperty(t, shop, testutils.Filter{Term: "old", Limit: 5}, "term")

	require.Nil(t, p.ModifyProperty(context.Background(), shop.Value(t, "string", "new")))
	assert.Equal(t, testutils.Filter{Term: "new", Limit: 5}, p.Owner().Pojo)
	assert.Equal(t, testutils.TypeFilter, p.Owner().LogicalTypeName())
	assert.Equal(t, "new", p.PropertyValue().Pojo)

	require.Len(t, mods, 1)
	assert.True(t, mods[0].OwnerReplaced)
}

// tagged is a view model that is comparable by type but holds a slice in
// an interface field, so == on two instances panics.
type tagged struct {
	Tags any
	N    int
}

func taggedSpec() *metamodel.ObjectSpec {
	return &metamodel.ObjectSpec{
		LogicalTypeName: "test.Tagged",
		Kind:            metamodel.KindViewModel,
		GoType:          reflect.TypeOf(tagged{}),
		Properties: []*metamodel.PropertyDescriptor{{
			ID: "n", TypeName: "int",
			Get: func(o any) (any, error) { return o.(tagged).N, nil },
			Set: func(o, v any) (any, error) {
				t := o.(tagged)
				t.N = v.(int)
				return t, nil
			},
		}},
	}
}

func TestProperty_UncomparableOwnerIsReplaced(t *testing.T) {
	var mods []*domain.ModificationEvent
	shop := testutils.NewShop(t, managed.WithHooks(domain.LifecycleHooks{
		OnModify: func(_ context.Context, e *domain.ModificationEvent) { mods = append(mods, e) },
	}))
	shop.Registry.MustRegister(taggedSpec())
	p := lookupProperty(t, shop, tagged{Tags: []string{"a"}, N: 1}, "n")

	var veto *domain.InteractionVeto
	require.NotPanics(t, func() {
		veto = p.ModifyProperty(context.Background(), shop.Value(t, "int", 2))
	})
	require.Nil(t, veto)
	assert.Equal(t, 2, p.Owner().Pojo.(tagged).N)
	assert.Equal(t, 2, p.PropertyValue().Pojo)

	require.Len(t, mods, 1)
	assert.True(t, mods[0].OwnerReplaced)
}

func TestProperty_Visibility(t *testing.T) {
	shop := testutils.NewShop(t)
	p := lookupProperty(t, shop, &testutils.Customer{Frozen: true, Name: "Ada"}, "name")

	assert.Nil(t, p.CheckVisibility(context.Background()))
	veto := p.CheckUsability(context.Background())
	require.NotNil(t, veto)
	assert.True(t, veto.IsReadOnly())
	assert.Equal(t, "customer is frozen", veto.ReasonAsString())
	assert.Equal(t, "Ada", p.PropertyValue().Pojo, "disabled properties are still readable")
}

func TestPropertyNegotiation(t *testing.T) {
	shop := testutils.NewShop(t)
	c := &testutils.Customer{Discount: 10}
	p := lookupProperty(t, shop, c, "discount")
	model := p.StartNegotiation(context.Background())

	assert.Equal(t, 10, model.Value().Pojo)
	assert.False(t, model.IsDirty())

	require.NoError(t, model.SetParsableText("-1"))
	assert.True(t, model.IsDirty())
	assert.Empty(t, model.ValidationMessage(), "no feedback before the first submit")

	veto := model.Submit(context.Background())
	require.NotNil(t, veto)
	assert.Equal(t, "discount must not be negative", model.ValidationMessage())
	assert.Equal(t, 10, c.Discount)

	model.SetValue(shop.Value(t, "int", 20))
	assert.Empty(t, model.ValidationMessage())
	require.Nil(t, model.Submit(context.Background()))
	assert.Equal(t, 20, c.Discount)
	assert.False(t, model.IsDirty())
}

func TestCollection_StreamElements(t *testing.T) {
	orders := []*testutils.Order{{Product: "apple", Quantity: 1}, {Product: "pear", Quantity: 2}}

	t.Run("Visible", func(t *testing.T) {
		shop := testutils.NewShop(t)
		owner := shop.Adapt(t, &testutils.Customer{Orders: orders})
		coll, ok := managed.LookupCollection(context.Background(), shop.Env, owner, "orders", domain.WhereParentedTables)
		require.True(t, ok)

		elems := coll.Elements(context.Background(), domain.InitiatedByUser)
		require.Len(t, elems, 2)
		assert.Equal(t, testutils.TypeOrder, elems[0].LogicalTypeName())
		assert.Same(t, orders[1], elems[1].Pojo)
	})

	t.Run("Hidden", func(t *testing.T) {
		shop := testutils.NewShop(t)
		owner := shop.Adapt(t, &testutils.Customer{Orders: orders, OrdersHidden: true})
		coll, ok := managed.LookupCollection(context.Background(), shop.Env, owner, "orders", domain.WhereParentedTables)
		require.True(t, ok)

		n := 0
		for range coll.StreamElements(context.Background(), domain.InitiatedByUser) {
			n++
		}
		assert.Zero(t, n)
	})
}
