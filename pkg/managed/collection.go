package managed

import (
	"context"
	"iter"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Collection is a collection bound to an owner.
type Collection struct {
	member
	desc *metamodel.CollectionDescriptor
}

var _ Member = (*Collection)(nil)

func NewCollection(ctx context.Context, env *Env, owner *OwnerRef, desc *metamodel.CollectionDescriptor, where domain.Where) *Collection {
	return &Collection{
		member: newMember(ctx, env, owner, domain.MemberCollection, desc.ID, where, desc.Hidden, desc.Disabled),
		desc:   desc,
	}
}

func (c *Collection) Descriptor() *metamodel.CollectionDescriptor { return c.desc }

func (c *Collection) ElementSpec() *metamodel.ObjectSpec {
	return c.env.spec(c.desc.ElementType)
}

// StreamElements yields the elements visible to by. A hidden collection
// yields nothing.
func (c *Collection) StreamElements(ctx context.Context, by domain.InitiatedBy) iter.Seq[metamodel.ManagedObject] {
	return func(yield func(metamodel.ManagedObject) bool) {
		if c.checkVisibility(ctx, by) != nil || c.desc.Get == nil {
			return
		}
		raw, err := guard(func() ([]any, error) { return c.desc.Get(c.owner.Get().Pojo) })
		if err != nil {
			c.env.log().WarnContext(ctx, "collection read failed", "collection", c.id, "err", err)
			return
		}
		spec := c.ElementSpec()
		for _, r := range raw {
			if !yield(c.env.adapt(spec, r)) {
				return
			}
		}
	}
}

// Elements collects StreamElements.
func (c *Collection) Elements(ctx context.Context, by domain.InitiatedBy) []metamodel.ManagedObject {
	var out []metamodel.ManagedObject
	for e := range c.StreamElements(ctx, by) {
		out = append(out, e)
	}
	return out
}
