package interaction_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/interaction"
	"github.com/aretw0/parley/pkg/managed"
)

func TestStartActionBoundToProperty(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	c := &testutils.Customer{Name: "Ada"}

	prop, ok := managed.LookupProperty(ctx, shop.Env, shop.Adapt(t, c), "address", domain.WhereObjectForms)
	require.True(t, ok)
	assert.True(t, prop.PropertyValue().IsEmpty())

	ai := interaction.StartActionBoundToProperty(ctx, shop.Env, prop, domain.WhereObjectForms).CheckVisibility(ctx)
	a := ai.MustManagedAction()
	assert.Equal(t, "address", a.ID())
	assert.Equal(t, testutils.Address{}, a.Head().Target.Pojo, "an absent composite is edited from its empty value")

	model := ai.StartParameterNegotiation(ctx)
	require.NoError(t, model.ParamModel(0).SetParsableText("Main St 1"))
	require.NoError(t, model.ParamModel(1).SetParsableText("Lisbon"))

	rw, err := ai.InvokeWith(ctx, model)
	require.NoError(t, err)
	require.True(t, rw.IsSuccess())
	assert.Equal(t, testutils.Address{Street: "Main St 1", City: "Lisbon"}, c.Address)
	assert.Equal(t, "Main St 1, Lisbon", prop.PropertyValue().Title())
}

func TestStartActionBoundToProperty_NotComposite(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	prop, ok := managed.LookupProperty(ctx, shop.Env, shop.Adapt(t, &testutils.Customer{}), "discount", domain.WhereObjectForms)
	require.True(t, ok)

	veto, vetoed := interaction.StartActionBoundToProperty(ctx, shop.Env, prop, domain.WhereObjectForms).Veto()
	require.True(t, vetoed)
	assert.True(t, veto.IsNotFound())
}

func TestStartActionBoundToParameter(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	owner := shop.Adapt(t, &testutils.Customer{})

	// placeOrder has no composite parameter; its "product" param is a plain string.
	model := interaction.StartAction(ctx, shop.Env, owner, "placeOrder", domain.WhereObjectForms).
		StartParameterNegotiation(ctx)
	_, vetoed := interaction.StartActionBoundToParameter(ctx, shop.Env, model, 0, domain.WhereObjectForms).Veto()
	assert.True(t, vetoed)

	_, vetoed = interaction.StartActionBoundToParameter(ctx, shop.Env, model, 9, domain.WhereObjectForms).Veto()
	assert.True(t, vetoed, "out of range parameter")
}

func TestStartActionBoundToParameter_Composite(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	c := &testutils.Customer{}
	relocate := interaction.StartAction(ctx, shop.Env, shop.Adapt(t, c), "relocate", domain.WhereObjectForms)
	model := relocate.StartParameterNegotiation(ctx)
	require.NotNil(t, model)

	edit := interaction.StartActionBoundToParameter(ctx, shop.Env, model, 0, domain.WhereObjectForms)
	sub := edit.StartParameterNegotiation(ctx)
	require.NotNil(t, sub)
	require.NoError(t, sub.ParamModel(0).SetParsableText("Harbour Rd 2"))
	require.NoError(t, sub.ParamModel(1).SetParsableText("Porto"))

	rw, err := edit.InvokeWith(ctx, sub)
	require.NoError(t, err)
	require.True(t, rw.IsSuccess())

	dest := model.ParamModel(0)
	assert.Equal(t, testutils.Address{Street: "Harbour Rd 2", City: "Porto"}, dest.Value().Pojo)
	assert.True(t, dest.IsDirty())
	assert.Empty(t, c.Address.City, "editing the parameter does not invoke the outer action")

	_, err = relocate.InvokeWith(ctx, model)
	require.NoError(t, err)
	assert.Equal(t, "Porto", c.Address.City)
}
