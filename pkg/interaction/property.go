package interaction

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

// PropertyInteraction is an interaction with a property.
type PropertyInteraction struct {
	chain[*managed.Property]
}

var _ MemberInteraction = (*PropertyInteraction)(nil)

func StartProperty(ctx context.Context, env *managed.Env, owner metamodel.ManagedObject, id string, where domain.Where) *PropertyInteraction {
	p, ok := managed.LookupProperty(ctx, env, owner, id, where)
	return &PropertyInteraction{start(ctx, env, owner, domain.MemberProperty, id, p, ok)}
}

func (pi *PropertyInteraction) CheckVisibility(ctx context.Context) *PropertyInteraction {
	pi.check(func(p *managed.Property) *domain.InteractionVeto { return p.CheckVisibility(ctx) })
	return pi
}

// CheckUsability checks usability for editing.
func (pi *PropertyInteraction) CheckUsability(ctx context.Context) *PropertyInteraction {
	return pi.CheckUsabilityFor(ctx, domain.AccessMutate)
}

// CheckUsabilityFor only checks usability when intent is to mutate; a
// disabled property can still be read.
func (pi *PropertyInteraction) CheckUsabilityFor(ctx context.Context, intent domain.AccessIntent) *PropertyInteraction {
	if !intent.IsMutate() {
		return pi
	}
	pi.check(func(p *managed.Property) *domain.InteractionVeto { return p.CheckUsability(ctx) })
	return pi
}

func (pi *PropertyInteraction) GetManagedProperty() (*managed.Property, bool) { return pi.member() }

func (pi *PropertyInteraction) MustManagedProperty() *managed.Property { return pi.mustMember() }

func (pi *PropertyInteraction) ValidateElseFail(onFailure func(domain.InteractionVeto) error) (*managed.Property, error) {
	return pi.validateElseFail(onFailure)
}

// StartPropertyNegotiation opens the edit dialog, or returns nil if the
// interaction was vetoed.
func (pi *PropertyInteraction) StartPropertyNegotiation(ctx context.Context) *managed.PropertyNegotiationModel {
	p, ok := pi.member()
	if !ok {
		return nil
	}
	return p.StartNegotiation(ctx)
}

// ModifyProperty applies the value newValue computes from the property. A
// veto from validation or from the setter ends the interaction.
func (pi *PropertyInteraction) ModifyProperty(ctx context.Context, newValue func(*managed.Property) metamodel.ManagedObject) *PropertyInteraction {
	pi.check(func(p *managed.Property) *domain.InteractionVeto {
		return p.ModifyProperty(ctx, newValue(p))
	})
	return pi
}
