package interaction

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

// StartActionBoundToProperty begins the action that edits the value of a
// composite property. An action of the owner named like the property takes
// precedence; otherwise the composite type's mixin is run on the current
// value and its result is written back through the property.
func StartActionBoundToProperty(ctx context.Context, env *managed.Env, prop *managed.Property, where domain.Where) *ActionInteraction {
	owner := prop.Owner()
	if owner.Spec != nil {
		if _, ok := owner.Spec.Action(prop.ID()); ok {
			return StartAction(ctx, env, owner, prop.ID(), where)
		}
	}

	spec := prop.ElementSpec()
	mixin, ok := compositeMixin(spec)
	if !ok {
		return notFound(ctx, env, owner, prop.ID())
	}
	current := valueOrEmpty(prop.PropertyValue(), spec)

	desc := *mixin
	desc.ID = prop.ID()
	desc.ReturnType = owner.LogicalTypeName()
	desc.Hidden = prop.Descriptor().Hidden
	desc.Disabled = prop.Descriptor().Disabled
	desc.Invoke = func(ic metamodel.InvocationContext) (any, error) {
		raw, err := mixin.Invoke(ic)
		if err != nil {
			return nil, err
		}
		if v := prop.ModifyProperty(ic.Context, metamodel.Of(spec, raw)); v != nil {
			return nil, &domain.VetoError{Veto: *v}
		}
		return prop.Owner().Pojo, nil
	}

	a := managed.NewMixinAction(ctx, env, prop.OwnerRef(), current, &desc, where)
	return &ActionInteraction{start(ctx, env, owner, domain.MemberAction, desc.ID, a, true)}
}

// StartActionBoundToParameter begins the action that edits the pending value
// of a composite parameter. The result replaces the parameter value in model.
func StartActionBoundToParameter(ctx context.Context, env *managed.Env, model *managed.ParameterNegotiationModel, index int, where domain.Where) *ActionInteraction {
	owner := model.Head().Owner
	p := model.ParamModel(index)
	if p == nil {
		return notFound(ctx, env, owner, fmt.Sprintf("%s#%d", model.Action().ID(), index))
	}
	id := p.Descriptor().ID
	if owner.Spec != nil {
		if _, ok := owner.Spec.Action(id); ok {
			return StartAction(ctx, env, owner, id, where)
		}
	}

	spec := p.ElementSpec()
	mixin, ok := compositeMixin(spec)
	if !ok {
		return notFound(ctx, env, owner, id)
	}
	current := valueOrEmpty(p.Value(), spec)

	desc := *mixin
	desc.ID = id
	desc.ReturnType = spec.LogicalTypeName
	desc.Hidden = nil
	desc.Disabled = nil
	desc.Invoke = func(ic metamodel.InvocationContext) (any, error) {
		raw, err := mixin.Invoke(ic)
		if err != nil {
			return nil, err
		}
		p.SetValue(metamodel.Of(spec, raw))
		return raw, nil
	}

	a := managed.NewMixinAction(ctx, env, managed.NewOwnerRef(owner), current, &desc, where)
	return &ActionInteraction{start(ctx, env, owner, domain.MemberAction, id, a, true)}
}

func compositeMixin(spec *metamodel.ObjectSpec) (*metamodel.ActionDescriptor, bool) {
	if spec == nil || !spec.IsComposite() {
		return nil, false
	}
	return spec.Action(spec.CompositeMixin)
}

// valueOrEmpty gives an absent composite the type's empty value so the mixin
// always has a target.
func valueOrEmpty(v metamodel.ManagedObject, spec *metamodel.ObjectSpec) metamodel.ManagedObject {
	if !v.IsEmpty() || spec.EmptyValue == nil {
		return v
	}
	return metamodel.Of(spec, spec.EmptyValue())
}

func notFound(ctx context.Context, env *managed.Env, owner metamodel.ManagedObject, id string) *ActionInteraction {
	var none *managed.Action
	return &ActionInteraction{start(ctx, env, owner, domain.MemberAction, id, none, false)}
}
