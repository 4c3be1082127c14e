package managed

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Fallback reasons used when rule code fails instead of answering.
const (
	hiddenOnFailure   = "Hidden (rule evaluation failed)"
	disabledOnFailure = "Disabled (rule evaluation failed)"
	invalidOnFailure  = "Invalid (rule evaluation failed)"
)

// Member is a reflected member bound to an owner.
type Member interface {
	MemberType() domain.MemberType
	ID() string
	Owner() metamodel.ManagedObject
	Where() domain.Where
	// CheckVisibility and CheckUsability return nil when the user may see or
	// use the member.
	CheckVisibility(ctx context.Context) *domain.InteractionVeto
	CheckUsability(ctx context.Context) *domain.InteractionVeto
}

// OwnerRef is the owner cell of a member. Property modification re-points it
// when the setter returns a different instance.
type OwnerRef struct {
	obj metamodel.ManagedObject
}

func NewOwnerRef(owner metamodel.ManagedObject) *OwnerRef {
	return &OwnerRef{obj: owner}
}

func (r *OwnerRef) Get() metamodel.ManagedObject { return r.obj }

func (r *OwnerRef) set(obj metamodel.ManagedObject) { r.obj = obj }

// member holds what all member kinds share. ctx is the context the member was
// looked up with; it is only used by lazily recomputed observables.
type member struct {
	ctx        context.Context
	env        *Env
	owner      *OwnerRef
	where      domain.Where
	memberType domain.MemberType
	id         string
	hidden     metamodel.Rule
	disabled   metamodel.Rule
}

func (m *member) MemberType() domain.MemberType { return m.memberType }
func (m *member) ID() string { return m.id }
func (m *member) Owner() metamodel.ManagedObject { return m.owner.Get() }
func (m *member) OwnerRef() *OwnerRef { return m.owner }
func (m *member) Where() domain.Where { return m.where }
func (m *member) Env() *Env { return m.env }

func (m *member) ruleContext(ctx context.Context, by domain.InitiatedBy) metamodel.RuleContext {
	return metamodel.RuleContext{
		Context:     ctx,
		Owner:       m.owner.Get(),
		Where:       m.where,
		InitiatedBy: by,
	}
}

func (m *member) CheckVisibility(ctx context.Context) *domain.InteractionVeto {
	return m.report(ctx, m.checkVisibility(ctx, domain.InitiatedByUser))
}

func (m *member) CheckUsability(ctx context.Context) *domain.InteractionVeto {
	return m.report(ctx, m.checkUsability(ctx, domain.InitiatedByUser))
}

// Visibility and Usability compute what CheckVisibility and CheckUsability
// would answer without reporting a veto. Viewers lay out members with them.
func (m *member) Visibility(ctx context.Context) *domain.InteractionVeto {
	return m.checkVisibility(ctx, domain.InitiatedByUser)
}

func (m *member) Usability(ctx context.Context) *domain.InteractionVeto {
	return m.checkUsability(ctx, domain.InitiatedByUser)
}

func (m *member) checkVisibility(ctx context.Context, by domain.InitiatedBy) *domain.InteractionVeto {
	if m.hidden == nil {
		return nil
	}
	c := m.evaluate(ctx, "hidden", hiddenOnFailure, func() (domain.Consent, error) {
		return m.hidden(m.ruleContext(ctx, by))
	})
	if c.IsAllowed() {
		return nil
	}
	v := domain.Hidden(c)
	return &v
}

func (m *member) checkUsability(ctx context.Context, by domain.InitiatedBy) *domain.InteractionVeto {
	if m.disabled == nil {
		return nil
	}
	c := m.evaluate(ctx, "disabled", disabledOnFailure, func() (domain.Consent, error) {
		return m.disabled(m.ruleContext(ctx, by))
	})
	if c.IsAllowed() {
		return nil
	}
	v := domain.ReadOnly(c)
	return &v
}

// evaluate runs rule code, turning an error or a panic into a veto with the
// given fallback reason.
func (m *member) evaluate(ctx context.Context, rule, fallback string, fn func() (domain.Consent, error)) domain.Consent {
	c, err := guard(fn)
	if err != nil {
		m.env.log().WarnContext(ctx, "rule evaluation failed",
			"owner", m.owner.Get().LogicalTypeName(),
			"member", m.id,
			"rule", rule,
			"err", err,
		)
		return domain.Veto(fallback)
	}
	return c
}

// report passes a veto that ends an interaction to the hooks. Vetoes computed
// for observables are not reported.
func (m *member) report(ctx context.Context, v *domain.InteractionVeto) *domain.InteractionVeto {
	if v != nil {
		m.env.Hooks.EmitVeto(ctx, m.owner.Get().LogicalTypeName(), m.memberType, m.id, *v)
	}
	return v
}

// guard calls fn, converting a panic into an error.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func newMember(ctx context.Context, env *Env, owner *OwnerRef, mt domain.MemberType, id string, where domain.Where, hidden, disabled metamodel.Rule) member {
	if ctx == nil {
		ctx = context.Background()
	}
	return member{
		ctx:        ctx,
		env:        env,
		owner:      owner,
		where:      where,
		memberType: mt,
		id:         id,
		hidden:     hidden,
		disabled:   disabled,
	}
}

// LookupAction binds the action id of owner's type. ok is false for unknown ids.
func LookupAction(ctx context.Context, env *Env, owner metamodel.ManagedObject, id string, where domain.Where) (*Action, bool) {
	if owner.Spec == nil {
		return nil, false
	}
	desc, ok := owner.Spec.Action(id)
	if !ok {
		return nil, false
	}
	return NewAction(ctx, env, NewOwnerRef(owner), desc, where), true
}

// LookupProperty binds the property id of owner's type.
func LookupProperty(ctx context.Context, env *Env, owner metamodel.ManagedObject, id string, where domain.Where) (*Property, bool) {
	if owner.Spec == nil {
		return nil, false
	}
	desc, ok := owner.Spec.Property(id)
	if !ok {
		return nil, false
	}
	return NewProperty(ctx, env, NewOwnerRef(owner), desc, where), true
}

// LookupCollection binds the collection id of owner's type.
func LookupCollection(ctx context.Context, env *Env, owner metamodel.ManagedObject, id string, where domain.Where) (*Collection, bool) {
	if owner.Spec == nil {
		return nil, false
	}
	desc, ok := owner.Spec.Collection(id)
	if !ok {
		return nil, false
	}
	return NewCollection(ctx, env, NewOwnerRef(owner), desc, where), true
}
