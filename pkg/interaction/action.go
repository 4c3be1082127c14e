package interaction

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/railway"
)

// ActionInteraction is an interaction with an action.
type ActionInteraction struct {
	chain[*managed.Action]
}

var _ MemberInteraction = (*ActionInteraction)(nil)

// StartAction begins an interaction with action id of owner. Unknown ids end
// the interaction with a NOT_FOUND veto.
func StartAction(ctx context.Context, env *managed.Env, owner metamodel.ManagedObject, id string, where domain.Where) *ActionInteraction {
	a, ok := managed.LookupAction(ctx, env, owner, id, where)
	return &ActionInteraction{start(ctx, env, owner, domain.MemberAction, id, a, ok)}
}

// StartActionWithMultiselect is StartAction for an action started from a
// table with selected rows.
func StartActionWithMultiselect(ctx context.Context, env *managed.Env, owner metamodel.ManagedObject, id string, where domain.Where, selection []metamodel.ManagedObject) *ActionInteraction {
	ai := StartAction(ctx, env, owner, id, where)
	if a, ok := ai.member(); ok {
		a.WithMultiselect(selection)
	}
	return ai
}

func (ai *ActionInteraction) CheckVisibility(ctx context.Context) *ActionInteraction {
	ai.check(func(a *managed.Action) *domain.InteractionVeto { return a.CheckVisibility(ctx) })
	return ai
}

func (ai *ActionInteraction) CheckUsability(ctx context.Context) *ActionInteraction {
	ai.check(func(a *managed.Action) *domain.InteractionVeto { return a.CheckUsability(ctx) })
	return ai
}

// CheckSemanticConstraint vetoes actions whose declared semantics are weaker
// than c requires, e.g. a non-idempotent action reached through an HTTP GET.
func (ai *ActionInteraction) CheckSemanticConstraint(ctx context.Context, c domain.SemanticsConstraint) *ActionInteraction {
	a, ok := ai.member()
	if !ok {
		return ai
	}
	s := a.Semantics()
	switch c {
	case domain.ConstraintSafe:
		if !s.IsSafeInNature() {
			ai.fail(ctx, domain.ActionNotSafe(a.ID()))
		}
	case domain.ConstraintIdempotent:
		if !s.IsIdempotentInNature() {
			ai.fail(ctx, domain.ActionNotIdempotent(a.ID()))
		}
	}
	return ai
}

// GetManagedAction returns the action unless the interaction was vetoed.
func (ai *ActionInteraction) GetManagedAction() (*managed.Action, bool) { return ai.member() }

// MustManagedAction panics with a *domain.VetoError if the interaction was
// vetoed.
func (ai *ActionInteraction) MustManagedAction() *managed.Action { return ai.mustMember() }

func (ai *ActionInteraction) ValidateElseFail(onFailure func(domain.InteractionVeto) error) (*managed.Action, error) {
	return ai.validateElseFail(onFailure)
}

// StartParameterNegotiation opens the parameter dialog, or returns nil if the
// interaction was vetoed.
func (ai *ActionInteraction) StartParameterNegotiation(ctx context.Context) *managed.ParameterNegotiationModel {
	a, ok := ai.member()
	if !ok {
		return nil
	}
	return a.StartParameterNegotiation(ctx)
}

// InvokeWith validates the pending values of model and invokes the action. A
// vetoed interaction answers with its veto without touching the model. A
// model negotiated for a different action ends the interaction with an
// INVALID veto.
func (ai *ActionInteraction) InvokeWith(ctx context.Context, model *managed.ParameterNegotiationModel) (railway.Railway[metamodel.ManagedObject], error) {
	a, ok := ai.member()
	if !ok {
		v, _ := ai.Veto()
		return railway.Failure[metamodel.ManagedObject](v), nil
	}
	if model == nil || !sameAction(a, model.Action()) {
		ai.fail(ctx, domain.Invalid(domain.Veto(fmt.Sprintf("parameters were not negotiated for '%s'", a.ID()))))
		v, _ := ai.Veto()
		return railway.Failure[metamodel.ManagedObject](v), nil
	}
	return model.Invoke(ctx)
}

// sameAction reports whether b is a, or the same action bound to the same
// owner instance.
func sameAction(a, b *managed.Action) bool {
	if a == b {
		return true
	}
	if b == nil || a.Descriptor() != b.Descriptor() {
		return false
	}
	return metamodel.SamePojo(a.Owner().Pojo, b.Owner().Pojo)
}
