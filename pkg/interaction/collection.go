package interaction

import (
	"context"
	"iter"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

// CollectionInteraction is an interaction with a collection.
type CollectionInteraction struct {
	chain[*managed.Collection]
}

var _ MemberInteraction = (*CollectionInteraction)(nil)

func StartCollection(ctx context.Context, env *managed.Env, owner metamodel.ManagedObject, id string, where domain.Where) *CollectionInteraction {
	c, ok := managed.LookupCollection(ctx, env, owner, id, where)
	return &CollectionInteraction{start(ctx, env, owner, domain.MemberCollection, id, c, ok)}
}

func (ci *CollectionInteraction) CheckVisibility(ctx context.Context) *CollectionInteraction {
	ci.check(func(c *managed.Collection) *domain.InteractionVeto { return c.CheckVisibility(ctx) })
	return ci
}

func (ci *CollectionInteraction) CheckUsability(ctx context.Context) *CollectionInteraction {
	return ci.CheckUsabilityFor(ctx, domain.AccessMutate)
}

// CheckUsabilityFor only checks usability when intent is to mutate.
func (ci *CollectionInteraction) CheckUsabilityFor(ctx context.Context, intent domain.AccessIntent) *CollectionInteraction {
	if !intent.IsMutate() {
		return ci
	}
	ci.check(func(c *managed.Collection) *domain.InteractionVeto { return c.CheckUsability(ctx) })
	return ci
}

func (ci *CollectionInteraction) GetManagedCollection() (*managed.Collection, bool) { return ci.member() }

func (ci *CollectionInteraction) MustManagedCollection() *managed.Collection { return ci.mustMember() }

func (ci *CollectionInteraction) ValidateElseFail(onFailure func(domain.InteractionVeto) error) (*managed.Collection, error) {
	return ci.validateElseFail(onFailure)
}

// StreamElements yields the elements as seen by the user; nothing if the
// interaction was vetoed or the collection is hidden.
func (ci *CollectionInteraction) StreamElements(ctx context.Context) iter.Seq[metamodel.ManagedObject] {
	c, ok := ci.member()
	if !ok {
		return func(func(metamodel.ManagedObject) bool) {}
	}
	return c.StreamElements(ctx, domain.InitiatedByUser)
}
