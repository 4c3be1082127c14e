package interaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/testutils"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/interaction"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

func TestActionInteraction_SemanticConstraint(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		constraint domain.SemanticsConstraint
		want       domain.VetoType
		vetoed     bool
	}{
		{"Non-idempotent under SAFE", "placeOrder", domain.ConstraintSafe, domain.VetoActionNotSafe, true},
		{"Non-idempotent under IDEMPOTENT", "placeOrder", domain.ConstraintIdempotent, domain.VetoActionNotIdempotent, true},
		{"Idempotent under IDEMPOTENT", "cancel", domain.ConstraintIdempotent, 0, false},
		{"Idempotent under SAFE", "cancel", domain.ConstraintSafe, domain.VetoActionNotSafe, true},
		{"Safe under SAFE", "summary", domain.ConstraintSafe, 0, false},
		{"Anything under NONE", "placeOrder", domain.ConstraintNone, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shop := testutils.NewShop(t)
			ctx := context.Background()
			owner := shop.Adapt(t, &testutils.Customer{})

			ai := interaction.StartAction(ctx, shop.Env, owner, tt.action, domain.WhereObjectForms).
				CheckVisibility(ctx).
				CheckUsability(ctx).
				CheckSemanticConstraint(ctx, tt.constraint)

			veto, vetoed := ai.Veto()
			assert.Equal(t, tt.vetoed, vetoed)
			if tt.vetoed {
				assert.Equal(t, tt.want, veto.Type())
				assert.Nil(t, ai.StartParameterNegotiation(ctx), "a vetoed interaction has no model")
			}
		})
	}
}

func TestActionInteraction_NotFound(t *testing.T) {
	var vetoes []*domain.VetoEvent
	shop := testutils.NewShop(t, managed.WithHooks(domain.LifecycleHooks{
		OnVeto: func(_ context.Context, e *domain.VetoEvent) { vetoes = append(vetoes, e) },
	}))
	ctx := context.Background()
	owner := shop.Adapt(t, &testutils.Customer{})

	ai := interaction.StartAction(ctx, shop.Env, owner, "nope", domain.WhereAnywhere).CheckVisibility(ctx)
	veto, vetoed := ai.Veto()
	require.True(t, vetoed)
	assert.True(t, veto.IsNotFound())
	assert.Equal(t, "member 'action' with id 'nope' not found", veto.ReasonAsString())
	require.Len(t, vetoes, 1, "later checks are skipped")
	assert.Equal(t, testutils.TypeCustomer, vetoes[0].OwnerType)

	_, ok := ai.GetManagedAction()
	assert.False(t, ok)
	assert.PanicsWithError(t, "interaction vetoed: "+veto.String(), func() { ai.MustManagedAction() })

	sentinel := errors.New("no such action")
	_, err := ai.ValidateElseFail(func(domain.InteractionVeto) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	_, err = ai.ValidateElseFail(nil)
	var vetoErr *domain.VetoError
	assert.ErrorAs(t, err, &vetoErr)
}

func TestActionInteraction_FirstVetoWins(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	owner := shop.Adapt(t, &testutils.Customer{Frozen: true})

	ai := interaction.StartAction(ctx, shop.Env, owner, "placeOrder", domain.WhereObjectForms).
		CheckUsability(ctx).
		CheckSemanticConstraint(ctx, domain.ConstraintSafe)

	veto, _ := ai.Veto()
	assert.Equal(t, domain.VetoReadOnly, veto.Type())
	assert.Equal(t, "customer is frozen", veto.ReasonAsString())
}

func TestActionInteraction_InvokeWith(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	c := &testutils.Customer{Name: "Ada"}

	ai := interaction.StartAction(ctx, shop.Env, shop.Adapt(t, c), "placeOrder", domain.WhereObjectForms).
		CheckVisibility(ctx).
		CheckUsability(ctx)
	model := ai.StartParameterNegotiation(ctx)
	require.NotNil(t, model)
	require.NoError(t, model.ParamModel(0).SetParsableText("plum"))
	require.NoError(t, model.ParamModel(1).SetParsableText("3"))

	rw, err := ai.InvokeWith(ctx, model)
	require.NoError(t, err)
	result, ok := rw.GetSuccess()
	require.True(t, ok)
	assert.Equal(t, "3 x plum", result.Title())
	assert.Len(t, c.Orders, 1)
}

func TestActionInteraction_InvokeWith_ForeignModel(t *testing.T) {
	var vetoes []*domain.VetoEvent
	shop := testutils.NewShop(t, managed.WithHooks(domain.LifecycleHooks{
		OnVeto: func(_ context.Context, e *domain.VetoEvent) { vetoes = append(vetoes, e) },
	}))
	ctx := context.Background()
	ada := &testutils.Customer{Name: "Ada"}
	frozen := &testutils.Customer{Name: "Bob", Frozen: true}

	other := interaction.StartAction(ctx, shop.Env, shop.Adapt(t, ada), "placeOrder", domain.WhereObjectForms)
	model := other.StartParameterNegotiation(ctx)
	require.NotNil(t, model)
	require.NoError(t, model.ParamModel(0).SetParsableText("plum"))
	require.NoError(t, model.ParamModel(1).SetParsableText("1"))

	tests := []struct {
		name  string
		owner *testutils.Customer
		id    string
	}{
		{"Other Action", ada, "summary"},
		{"Other Owner", frozen, "placeOrder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vetoes = nil
			ai := interaction.StartAction(ctx, shop.Env, shop.Adapt(t, tt.owner), tt.id, domain.WhereObjectForms)

			rw, err := ai.InvokeWith(ctx, model)
			require.NoError(t, err)
			veto, ok := rw.GetVeto()
			require.True(t, ok)
			assert.Equal(t, domain.VetoInvalid, veto.Type())
			assert.Empty(t, ada.Orders)
			assert.Empty(t, frozen.Orders)

			_, vetoed := ai.Veto()
			assert.True(t, vetoed, "the interaction carries the veto")
			require.Len(t, vetoes, 1)
			assert.Equal(t, tt.id, vetoes[0].MemberID)
		})
	}

	t.Run("Same Action Fresh Model", func(t *testing.T) {
		ai := interaction.StartAction(ctx, shop.Env, shop.Adapt(t, ada), "placeOrder", domain.WhereObjectForms)
		rw, err := ai.InvokeWith(ctx, model)
		require.NoError(t, err)
		assert.True(t, rw.IsSuccess(), "an equivalent action on the same owner accepts the model")
		assert.Len(t, ada.Orders, 1)
	})
}

func TestActionInteraction_Multiselect(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	sel := []metamodel.ManagedObject{shop.Adapt(t, &testutils.Order{}), shop.Adapt(t, &testutils.Order{})}

	ai := interaction.StartActionWithMultiselect(ctx, shop.Env, shop.Adapt(t, &testutils.Customer{}), "summary", domain.WhereStandaloneTables, sel)
	assert.Len(t, ai.MustManagedAction().Head().Multiselect, 2)
}

func TestPropertyInteraction_UsabilityOnlyForMutation(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	owner := shop.Adapt(t, &testutils.Customer{Name: "Ada", Frozen: true})

	read := interaction.StartProperty(ctx, shop.Env, owner, "name", domain.WhereObjectForms).
		CheckVisibility(ctx).
		CheckUsabilityFor(ctx, domain.AccessRead)
	_, vetoed := read.Veto()
	assert.False(t, vetoed)
	assert.Equal(t, "Ada", read.MustManagedProperty().PropertyValue().Pojo)

	edit := interaction.StartProperty(ctx, shop.Env, owner, "name", domain.WhereObjectForms).
		CheckVisibility(ctx).
		CheckUsabilityFor(ctx, domain.AccessMutate)
	veto, vetoed := edit.Veto()
	require.True(t, vetoed)
	assert.True(t, veto.IsReadOnly())
	assert.Nil(t, edit.StartPropertyNegotiation(ctx))
}

func TestPropertyInteraction_ModifyProperty(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	c := &testutils.Customer{Discount: 10}

	pi := interaction.StartProperty(ctx, shop.Env, shop.Adapt(t, c), "discount", domain.WhereObjectForms).
		CheckVisibility(ctx).
		CheckUsability(ctx).
		ModifyProperty(ctx, func(*managed.Property) metamodel.ManagedObject {
			return shop.Value(t, "int", -5)
		})

	veto, vetoed := pi.Veto()
	require.True(t, vetoed)
	assert.Equal(t, domain.VetoInvalid, veto.Type())
	assert.Equal(t, 10, c.Discount)

	ok := interaction.StartProperty(ctx, shop.Env, shop.Adapt(t, c), "discount", domain.WhereObjectForms).
		ModifyProperty(ctx, func(p *managed.Property) metamodel.ManagedObject {
			return shop.Value(t, "int", p.PropertyValue().Pojo.(int)+1)
		})
	_, vetoed = ok.Veto()
	assert.False(t, vetoed)
	assert.Equal(t, 11, c.Discount)
}

func TestCollectionInteraction_Hidden(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	owner := shop.Adapt(t, &testutils.Customer{
		OrdersHidden: true,
		Orders:       []*testutils.Order{{Product: "apple", Quantity: 1}},
	})

	ci := interaction.StartCollection(ctx, shop.Env, owner, "orders", domain.WhereParentedTables)
	n := 0
	for range ci.StreamElements(ctx) {
		n++
	}
	assert.Zero(t, n, "hidden collections stream nothing")

	veto, vetoed := ci.CheckVisibility(ctx).Veto()
	require.True(t, vetoed)
	assert.Equal(t, "orders are private", veto.ReasonAsString())
	for range ci.StreamElements(ctx) {
		n++
	}
	assert.Zero(t, n)
}

func TestMemberInteraction_Sealed(t *testing.T) {
	shop := testutils.NewShop(t)
	ctx := context.Background()
	owner := shop.Adapt(t, &testutils.Customer{})

	all := []interaction.MemberInteraction{
		interaction.StartAction(ctx, shop.Env, owner, "summary", domain.WhereAnywhere),
		interaction.StartProperty(ctx, shop.Env, owner, "name", domain.WhereAnywhere),
		interaction.StartCollection(ctx, shop.Env, owner, "orders", domain.WhereAnywhere),
	}
	want := []domain.MemberType{domain.MemberAction, domain.MemberProperty, domain.MemberCollection}
	for i, mi := range all {
		assert.Equal(t, want[i], mi.MemberType())
	}
}
