package dsl

import (
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// ActionBuilder configures an action of T.
type ActionBuilder[T any] struct {
	d *metamodel.ActionDescriptor
}

func (a *ActionBuilder[T]) Name(name string) *ActionBuilder[T] {
	a.d.Name = name
	return a
}

// Semantics declares how safe the action is to invoke.
func (a *ActionBuilder[T]) Semantics(s domain.ActionSemantics) *ActionBuilder[T] {
	a.d.Semantics = s
	return a
}

// HiddenWhen hides the action while pred holds.
func (a *ActionBuilder[T]) HiddenWhen(pred func(T) bool, reason string) *ActionBuilder[T] {
	a.d.Hidden = when(pred, reason)
	return a
}

// DisabledWhen disables the action while pred holds.
func (a *ActionBuilder[T]) DisabledWhen(pred func(T) bool, reason string) *ActionBuilder[T] {
	a.d.Disabled = when(pred, reason)
	return a
}

// Validate checks the complete argument tuple. A non-empty return is the
// veto reason. Empty arguments are passed as nil.
func (a *ActionBuilder[T]) Validate(fn func(owner T, args []any) string) *ActionBuilder[T] {
	a.d.Validate = func(rc metamodel.RuleContext, args metamodel.Arguments) (domain.Consent, error) {
		v, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return domain.Consent{}, err
		}
		return consent(fn(v, pojos(args))), nil
	}
	return a
}

// Invoke sets the behaviour. Plural arguments arrive as []any.
func (a *ActionBuilder[T]) Invoke(fn func(owner T, args []any) (any, error)) *ActionBuilder[T] {
	a.d.Invoke = func(ic metamodel.InvocationContext) (any, error) {
		v, err := cast[T](ic.Owner.Pojo)
		if err != nil {
			return nil, err
		}
		return fn(v, pojos(metamodel.ArgList(ic.Args)))
	}
	return a
}

// Param appends a parameter.
func (a *ActionBuilder[T]) Param(id, typeName string) *ParamBuilder[T] {
	d := &metamodel.ParameterDescriptor{
		Index:    len(a.d.Params),
		ID:       id,
		TypeName: typeName,
	}
	a.d.Params = append(a.d.Params, d)
	return &ParamBuilder[T]{d: d}
}

// ParamBuilder configures one action parameter.
type ParamBuilder[T any] struct {
	d *metamodel.ParameterDescriptor
}

func (p *ParamBuilder[T]) Name(name string) *ParamBuilder[T] {
	p.d.Name = name
	return p
}

func (p *ParamBuilder[T]) Optional() *ParamBuilder[T] {
	p.d.Optional = true
	return p
}

// Plural makes the parameter take a list of values.
func (p *ParamBuilder[T]) Plural() *ParamBuilder[T] {
	p.d.Plural = true
	return p
}

// Default computes the initial value from the owner and the parameters
// before this one.
func (p *ParamBuilder[T]) Default(fn func(owner T, earlier []any) any) *ParamBuilder[T] {
	p.d.Default = func(rc metamodel.RuleContext, args metamodel.Arguments) (any, error) {
		v, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return nil, err
		}
		earlier := pojos(args)
		if len(earlier) > p.d.Index {
			earlier = earlier[:p.d.Index]
		}
		return fn(v, earlier), nil
	}
	return p
}

// Choices restricts the parameter to the listed values.
func (p *ParamBuilder[T]) Choices(fn func(owner T, args []any) []any) *ParamBuilder[T] {
	p.d.Choices = func(rc metamodel.RuleContext, args metamodel.Arguments) ([]any, error) {
		v, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return nil, err
		}
		return fn(v, pojos(args)), nil
	}
	return p
}

// AutoComplete lists candidates for a search of at least minLength runes.
// It replaces any choices.
func (p *ParamBuilder[T]) AutoComplete(minLength int, fn func(owner T, search string) []any) *ParamBuilder[T] {
	p.d.MinSearchLength = minLength
	p.d.Choices = nil
	p.d.AutoComplete = func(rc metamodel.RuleContext, _ metamodel.Arguments, search string) ([]any, error) {
		v, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return nil, err
		}
		return fn(v, search), nil
	}
	return p
}

// Validate checks a proposed value. A non-empty return is the veto reason.
func (p *ParamBuilder[T]) Validate(fn func(owner T, proposed any) string) *ParamBuilder[T] {
	p.d.Validate = func(rc metamodel.RuleContext, _ metamodel.Arguments, proposed metamodel.ManagedObject) (domain.Consent, error) {
		v, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return domain.Consent{}, err
		}
		return consent(fn(v, proposed.Pojo)), nil
	}
	return p
}

// pojos unwraps arguments. Empty values become nil and packed values []any.
func pojos(args metamodel.Arguments) []any {
	out := make([]any, args.Len())
	for i := range out {
		mo := args.Value(i)
		switch {
		case mo.IsPacked():
			elems := mo.Elements()
			list := make([]any, len(elems))
			for j, e := range elems {
				list[j] = e.Pojo
			}
			out[i] = list
		case !mo.IsEmpty():
			out[i] = mo.Pojo
		}
	}
	return out
}
