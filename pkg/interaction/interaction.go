// Package interaction is the entry point for UIs and APIs that want to look
// at, edit or invoke a member of a domain object.
//
// An interaction starts from an owner and a member id and then runs a chain of
// checks. The first check that vetoes ends the chain; every later step is
// skipped and the interaction carries that veto from then on:
//
//	act := interaction.StartAction(ctx, env, owner, "placeOrder", domain.WhereObjectForms).
//		CheckVisibility(ctx).
//		CheckUsability(ctx)
//	model := act.StartParameterNegotiation(ctx)
package interaction

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/railway"
)

// MemberInteraction is implemented by ActionInteraction, PropertyInteraction
// and CollectionInteraction only.
type MemberInteraction interface {
	MemberType() domain.MemberType
	MemberID() string
	// Veto returns the veto that ended the interaction, if any.
	Veto() (domain.InteractionVeto, bool)

	sealed()
}

// chain is the state every interaction kind shares.
type chain[T managed.Member] struct {
	env        *managed.Env
	memberType domain.MemberType
	memberID   string
	ownerType  string
	rw         railway.Railway[T]
}

func (c *chain[T]) sealed() {}

func (c *chain[T]) MemberType() domain.MemberType { return c.memberType }

func (c *chain[T]) MemberID() string { return c.memberID }

func (c *chain[T]) Veto() (domain.InteractionVeto, bool) { return c.rw.GetVeto() }

// Railway exposes the underlying success-or-veto value.
func (c *chain[T]) Railway() railway.Railway[T] { return c.rw }

// member returns the bound member unless the chain was vetoed.
func (c *chain[T]) member() (T, bool) { return c.rw.GetSuccess() }

// mustMember panics with a *domain.VetoError when the chain was vetoed.
func (c *chain[T]) mustMember() T {
	m, ok := c.rw.GetSuccess()
	if !ok {
		v, _ := c.rw.GetVeto()
		panic(&domain.VetoError{Veto: v})
	}
	return m
}

// validateElseFail returns the member, or the error onFailure builds from the
// veto. A nil onFailure wraps the veto in a *domain.VetoError.
func (c *chain[T]) validateElseFail(onFailure func(domain.InteractionVeto) error) (T, error) {
	if onFailure == nil {
		onFailure = func(v domain.InteractionVeto) error { return &domain.VetoError{Veto: v} }
	}
	return c.rw.GetSuccessElseFail(onFailure)
}

func (c *chain[T]) check(fn func(T) *domain.InteractionVeto) {
	c.rw = c.rw.Update(fn)
}

// fail ends the chain with v and reports it.
func (c *chain[T]) fail(ctx context.Context, v domain.InteractionVeto) {
	c.env.Hooks.EmitVeto(ctx, c.ownerType, c.memberType, c.memberID, v)
	c.rw = railway.Failure[T](v)
}

func start[T managed.Member](ctx context.Context, env *managed.Env, owner metamodel.ManagedObject, mt domain.MemberType, id string, m T, found bool) chain[T] {
	c := chain[T]{
		env:        env,
		memberType: mt,
		memberID:   id,
		ownerType:  owner.LogicalTypeName(),
	}
	if !found {
		c.fail(ctx, domain.NotFound(mt, id))
		return c
	}
	c.rw = railway.Success(m)
	return c
}
