package managed

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/railway"
)

// ActionInteractionHead is what an invocation runs against. Target differs
// from Owner only for mixin actions.
type ActionInteractionHead struct {
	Owner       metamodel.ManagedObject
	Target      metamodel.ManagedObject
	Action      *metamodel.ActionDescriptor
	Multiselect []metamodel.ManagedObject
}

// Action is an action bound to an owner.
type Action struct {
	member
	desc        *metamodel.ActionDescriptor
	target      *metamodel.ManagedObject
	multiselect []metamodel.ManagedObject
}

var _ Member = (*Action)(nil)

func NewAction(ctx context.Context, env *Env, owner *OwnerRef, desc *metamodel.ActionDescriptor, where domain.Where) *Action {
	return &Action{
		member: newMember(ctx, env, owner, domain.MemberAction, desc.ID, where, desc.Hidden, desc.Disabled),
		desc:   desc,
	}
}

// NewMixinAction binds desc to owner while invoking it on target.
func NewMixinAction(ctx context.Context, env *Env, owner *OwnerRef, target metamodel.ManagedObject, desc *metamodel.ActionDescriptor, where domain.Where) *Action {
	a := NewAction(ctx, env, owner, desc, where)
	a.target = &target
	return a
}

func (a *Action) Descriptor() *metamodel.ActionDescriptor { return a.desc }

func (a *Action) Semantics() domain.ActionSemantics { return a.desc.Semantics }

// Target is the object the behaviour runs on; the owner unless this is a
// mixin action.
func (a *Action) Target() metamodel.ManagedObject {
	if a.target != nil {
		return *a.target
	}
	return a.owner.Get()
}

// WithMultiselect records the objects selected in a table view the action was
// started from.
func (a *Action) WithMultiselect(selection []metamodel.ManagedObject) *Action {
	a.multiselect = append([]metamodel.ManagedObject(nil), selection...)
	return a
}

func (a *Action) Multiselect() []metamodel.ManagedObject {
	return append([]metamodel.ManagedObject(nil), a.multiselect...)
}

// Head returns a fresh head for the current owner.
func (a *Action) Head() ActionInteractionHead {
	return ActionInteractionHead{
		Owner:       a.owner.Get(),
		Target:      a.Target(),
		Action:      a.desc,
		Multiselect: a.Multiselect(),
	}
}

// ReturnSpec is the declared return type, nil if unknown.
func (a *Action) ReturnSpec() *metamodel.ObjectSpec {
	return a.env.spec(a.desc.ReturnType)
}

// ParamSpec is the declared type of parameter i.
func (a *Action) ParamSpec(i int) *metamodel.ObjectSpec {
	if i < 0 || i >= len(a.desc.Params) {
		return nil
	}
	return a.env.spec(a.desc.Params[i].TypeName)
}

func paramName(p *metamodel.ParameterDescriptor) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// validateParam checks a single proposed value of parameter i against args.
func (a *Action) validateParam(ctx context.Context, args metamodel.Arguments, i int, proposed metamodel.ManagedObject) *domain.InteractionVeto {
	p := a.desc.Params[i]
	if !p.Optional && proposed.IsEmpty() {
		v := domain.ActionParamInvalid(domain.Veto(fmt.Sprintf("'%s' is mandatory", paramName(p))))
		return &v
	}
	if p.Validate == nil {
		return nil
	}
	c := a.evaluate(ctx, "validate "+p.ID, invalidOnFailure, func() (domain.Consent, error) {
		return p.Validate(a.ruleContext(ctx, domain.InitiatedByUser), args, proposed)
	})
	if c.IsAllowed() {
		return nil
	}
	v := domain.ActionParamInvalid(c)
	return &v
}

// validateAction checks the argument tuple as a whole.
func (a *Action) validateAction(ctx context.Context, args metamodel.Arguments) *domain.InteractionVeto {
	if a.desc.Validate == nil {
		return nil
	}
	c := a.evaluate(ctx, "validate", invalidOnFailure, func() (domain.Consent, error) {
		return a.desc.Validate(a.ruleContext(ctx, domain.InitiatedByUser), args)
	})
	if c.IsAllowed() {
		return nil
	}
	v := domain.Invalid(c)
	return &v
}

// ValidateArgs validates each argument and then the tuple. The first veto
// wins.
func (a *Action) ValidateArgs(ctx context.Context, args []metamodel.ManagedObject) *domain.InteractionVeto {
	if len(args) != a.desc.ParamCount() {
		v := domain.ActionParamInvalid(domain.Veto(
			fmt.Sprintf("action '%s' expects %d arguments, got %d", a.id, a.desc.ParamCount(), len(args))))
		return a.report(ctx, &v)
	}
	list := metamodel.ArgList(args)
	for i := range args {
		if v := a.validateParam(ctx, list, i, args[i]); v != nil {
			return a.report(ctx, v)
		}
	}
	return a.report(ctx, a.validateAction(ctx, list))
}

// Invoke runs the action without re-checking any rule. Errors raised by the
// behaviour, by routing or by injection are returned as errors; the railway is
// then a Failure carrying the same error as an INVALID veto.
func (a *Action) Invoke(ctx context.Context, args []metamodel.ManagedObject, by domain.InitiatedBy) (railway.Railway[metamodel.ManagedObject], error) {
	fail := func(err error) (railway.Railway[metamodel.ManagedObject], error) {
		return railway.Failure[metamodel.ManagedObject](domain.InvocationException(err)), err
	}
	if a.desc.Invoke == nil {
		return fail(fmt.Errorf("action %s has no behaviour", a.id))
	}
	if len(args) != a.desc.ParamCount() {
		return fail(fmt.Errorf("action %s expects %d arguments, got %d", a.id, a.desc.ParamCount(), len(args)))
	}

	owner := a.owner.Get()
	event := &domain.InvocationEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventInvoke,
			OwnerType: owner.LogicalTypeName(),
			MemberID:  a.id,
		},
		InitiatedBy: by,
		ArgCount:    len(args),
	}
	if a.env.Hooks.OnInvoke != nil {
		a.env.Hooks.OnInvoke(ctx, event)
	}

	raw, err := a.desc.Invoke(metamodel.InvocationContext{
		Context:     ctx,
		Owner:       owner,
		Target:      a.Target(),
		Args:        append([]metamodel.ManagedObject(nil), args...),
		Multiselect: a.Multiselect(),
		InitiatedBy: by,
	})
	var result metamodel.ManagedObject
	if err == nil {
		result, event.Routed, err = a.route(ctx, raw)
	}

	event.Type = domain.EventInvokeReturn
	event.Duration = time.Since(event.Timestamp)
	event.IsError = err != nil
	if a.env.Hooks.OnInvokeReturn != nil {
		a.env.Hooks.OnInvokeReturn(ctx, event)
	}
	if err != nil {
		a.env.log().ErrorContext(ctx, "action invocation failed", "action", a.id, "owner", owner.LogicalTypeName(), "err", err)
		return fail(fmt.Errorf("invoke %s: %w", a.id, err))
	}
	a.env.log().DebugContext(ctx, "action invoked",
		"action", a.id,
		"owner", owner.LogicalTypeName(),
		"routed", event.Routed,
		"duration", event.Duration,
	)
	return railway.Success(result), nil
}

// InvokeWithRuleChecking re-checks visibility, usability and argument validity
// as the user before invoking. Visibility and usability vetoes are returned as
// a *domain.AuthorizationError, argument vetoes as a *domain.VetoError.
func (a *Action) InvokeWithRuleChecking(ctx context.Context, args []metamodel.ManagedObject) (metamodel.ManagedObject, error) {
	deny := func(v *domain.InteractionVeto) (metamodel.ManagedObject, error) {
		return metamodel.ManagedObject{}, &domain.AuthorizationError{ActionID: a.id, Veto: *v}
	}
	if v := a.CheckVisibility(ctx); v != nil {
		return deny(v)
	}
	if v := a.CheckUsability(ctx); v != nil {
		return deny(v)
	}
	if v := a.ValidateArgs(ctx, args); v != nil {
		return metamodel.ManagedObject{}, &domain.VetoError{Veto: *v}
	}
	rw, err := a.Invoke(ctx, args, domain.InitiatedByUser)
	if err != nil {
		return metamodel.ManagedObject{}, err
	}
	result, _ := rw.GetSuccess()
	return result, nil
}

// route maps the raw result of an invocation to the object handed back to
// the caller.
func (a *Action) route(ctx context.Context, raw any) (metamodel.ManagedObject, bool, error) {
	returnSpec := a.ReturnSpec()
	if isNothing(raw) {
		return metamodel.Empty(returnSpec), false, nil
	}

	routed := false
	for _, rs := range a.env.Routing {
		if !rs.CanRoute(raw) {
			continue
		}
		r, err := rs.Route(ctx, raw)
		if err != nil {
			return metamodel.ManagedObject{}, false, fmt.Errorf("route result: %w", err)
		}
		raw, routed = r, true
		break
	}
	if isNothing(raw) {
		return metamodel.Empty(returnSpec), routed, nil
	}

	if a.env.Injector != nil {
		targets := []any{raw}
		if list, ok := sliceElements(raw); ok {
			targets = list
		}
		for _, t := range targets {
			if err := a.env.Injector.Inject(t); err != nil {
				return metamodel.ManagedObject{}, routed, fmt.Errorf("inject result: %w", err)
			}
		}
	}
	return a.env.adapt(returnSpec, raw), routed, nil
}

func isNothing(raw any) bool {
	if raw == nil {
		return true
	}
	if mo, ok := raw.(metamodel.ManagedObject); ok {
		return !mo.IsPacked() && mo.IsEmpty()
	}
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return v.IsNil()
	case reflect.Slice:
		return v.Len() == 0
	}
	return false
}

// StartParameterNegotiation opens a pending-parameter dialog seeded with the
// parameter defaults.
func (a *Action) StartParameterNegotiation(ctx context.Context) *ParameterNegotiationModel {
	m := newParameterNegotiationModel(ctx, a)
	m.seedDefaults()
	return m
}
