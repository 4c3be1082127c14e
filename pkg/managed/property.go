package managed

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/bindable"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Property is a property bound to an owner. Its value is observable: it is
// read lazily and re-read after every modification.
type Property struct {
	member
	desc  *metamodel.PropertyDescriptor
	value *bindable.Lazy[metamodel.ManagedObject]
}

var _ Member = (*Property)(nil)

func NewProperty(ctx context.Context, env *Env, owner *OwnerRef, desc *metamodel.PropertyDescriptor, where domain.Where) *Property {
	p := &Property{
		member: newMember(ctx, env, owner, domain.MemberProperty, desc.ID, where, desc.Hidden, desc.Disabled),
		desc:   desc,
	}
	p.value = bindable.NewLazy(p.readValue)
	return p
}

func (p *Property) Descriptor() *metamodel.PropertyDescriptor { return p.desc }

// ElementSpec is the declared type of the property value.
func (p *Property) ElementSpec() *metamodel.ObjectSpec {
	return p.env.spec(p.desc.TypeName)
}

// PropertyValue is the current value, or the empty value when either the
// framework or the user may not see the property.
func (p *Property) PropertyValue() metamodel.ManagedObject {
	return p.value.Value()
}

// ObservablePropValue exposes the lazy value cell.
func (p *Property) ObservablePropValue() *bindable.Lazy[metamodel.ManagedObject] {
	return p.value
}

func (p *Property) readValue() metamodel.ManagedObject {
	spec := p.ElementSpec()
	if p.checkVisibility(p.ctx, domain.InitiatedByFramework) != nil ||
		p.checkVisibility(p.ctx, domain.InitiatedByUser) != nil {
		return metamodel.Empty(spec)
	}
	if p.desc.Get == nil {
		return metamodel.Empty(spec)
	}
	raw, err := guard(func() (any, error) { return p.desc.Get(p.owner.Get().Pojo) })
	if err != nil {
		p.env.log().WarnContext(p.ctx, "property read failed", "property", p.id, "err", err)
		return metamodel.Empty(spec)
	}
	return p.env.adapt(spec, raw)
}

// CheckValidity validates a proposed value without applying it.
func (p *Property) CheckValidity(ctx context.Context, proposed metamodel.ManagedObject) *domain.InteractionVeto {
	if !p.desc.Optional && proposed.IsEmpty() {
		v := domain.Invalid(domain.Veto(fmt.Sprintf("'%s' is mandatory", p.name())))
		return &v
	}
	if p.desc.Validate == nil {
		return nil
	}
	c := p.evaluate(ctx, "validate", invalidOnFailure, func() (domain.Consent, error) {
		return p.desc.Validate(p.ruleContext(ctx, domain.InitiatedByUser), proposed)
	})
	if c.IsAllowed() {
		return nil
	}
	v := domain.Invalid(c)
	return &v
}

func (p *Property) name() string {
	if p.desc.Name != "" {
		return p.desc.Name
	}
	return p.id
}

// ModifyProperty validates newValue and applies it. When the setter answers
// with a different owner instance the property continues on that instance.
// A failing setter yields an INVALID veto.
func (p *Property) ModifyProperty(ctx context.Context, newValue metamodel.ManagedObject) *domain.InteractionVeto {
	if v := p.CheckValidity(ctx, newValue); v != nil {
		return p.report(ctx, v)
	}
	if p.desc.Set == nil {
		v := domain.ReadOnly(domain.Veto(fmt.Sprintf("property '%s' cannot be set", p.id)))
		return p.report(ctx, &v)
	}

	owner := p.owner.Get()
	var raw any
	if newValue.IsPacked() {
		raw = newValue.Pojos()
	} else {
		raw = newValue.Pojo
	}
	next, err := guard(func() (any, error) { return p.desc.Set(owner.Pojo, raw) })
	if err != nil {
		p.env.log().WarnContext(ctx, "property modification failed", "property", p.id, "err", err)
		v := domain.InvocationException(err)
		return p.report(ctx, &v)
	}

	replaced := false
	if next != nil && !metamodel.SamePojo(next, owner.Pojo) {
		p.owner.set(metamodel.Of(owner.Spec, next))
		replaced = true
	}
	p.value.Invalidate()

	if p.env.Hooks.OnModify != nil {
		p.env.Hooks.OnModify(ctx, &domain.ModificationEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventModify,
				OwnerType: owner.LogicalTypeName(),
				MemberID:  p.id,
			},
			OwnerReplaced: replaced,
		})
	}
	p.env.log().DebugContext(ctx, "property modified", "property", p.id, "owner_replaced", replaced)
	return nil
}

// choices lists the allowed values of the property, bounded or searched.
func (p *Property) choices(ctx context.Context, search string) []metamodel.ManagedObject {
	spec := p.ElementSpec()
	rc := p.ruleContext(ctx, domain.InitiatedByUser)
	var raw []any
	var err error
	switch {
	case p.desc.AutoComplete != nil:
		raw, err = guard(func() ([]any, error) { return p.desc.AutoComplete(rc, search) })
	case p.desc.Choices != nil:
		raw, err = guard(func() ([]any, error) { return p.desc.Choices(rc) })
	default:
		return nil
	}
	if err != nil {
		p.env.log().WarnContext(ctx, "property choices failed", "property", p.id, "err", err)
		return nil
	}
	return p.env.adaptAll(spec, raw)
}

// StartNegotiation opens an edit dialog seeded with the current value.
func (p *Property) StartNegotiation(ctx context.Context) *PropertyNegotiationModel {
	return newPropertyNegotiationModel(ctx, p)
}
