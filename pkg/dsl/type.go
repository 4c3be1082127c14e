package dsl

import (
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// TypeBuilder provides a fluent API for configuring one object spec.
type TypeBuilder[T any] struct {
	spec *metamodel.ObjectSpec
}

// Title sets how instances are titled.
func (t *TypeBuilder[T]) Title(fn func(T) string) *TypeBuilder[T] {
	t.spec.TitleFunc = func(pojo any) string {
		v, err := cast[T](pojo)
		if err != nil {
			return ""
		}
		return fn(v)
	}
	return t
}

// Property adds a read-only property. Chain Set to make it editable.
func (t *TypeBuilder[T]) Property(id, typeName string, get func(T) any) *PropertyBuilder[T] {
	d := &metamodel.PropertyDescriptor{
		ID:       id,
		TypeName: typeName,
		Get: func(owner any) (any, error) {
			v, err := cast[T](owner)
			if err != nil {
				return nil, err
			}
			return get(v), nil
		},
	}
	t.spec.Properties = append(t.spec.Properties, d)
	return &PropertyBuilder[T]{d: d}
}

// Collection adds a collection of elementType.
func (t *TypeBuilder[T]) Collection(id, elementType string, get func(T) []any) *CollectionBuilder[T] {
	d := &metamodel.CollectionDescriptor{
		ID:          id,
		ElementType: elementType,
		Get: func(owner any) ([]any, error) {
			v, err := cast[T](owner)
			if err != nil {
				return nil, err
			}
			return get(v), nil
		},
	}
	t.spec.Collections = append(t.spec.Collections, d)
	return &CollectionBuilder[T]{d: d}
}

// Action adds an action returning returnType. Actions default to
// non-idempotent semantics; an empty returnType means no result.
func (t *TypeBuilder[T]) Action(id, returnType string) *ActionBuilder[T] {
	d := &metamodel.ActionDescriptor{
		ID:         id,
		ReturnType: returnType,
		Semantics:  domain.SemanticsNonIdempotent,
	}
	t.spec.Actions = append(t.spec.Actions, d)
	return &ActionBuilder[T]{d: d}
}

// Spec returns the underlying object spec.
// This is primarily used by the Builder, but exposed for advanced usage.
func (t *TypeBuilder[T]) Spec() *metamodel.ObjectSpec {
	return t.spec
}

// PropertyBuilder configures a property of T.
type PropertyBuilder[T any] struct {
	d *metamodel.PropertyDescriptor
}

// Name sets the display name.
func (p *PropertyBuilder[T]) Name(name string) *PropertyBuilder[T] {
	p.d.Name = name
	return p
}

// Optional marks the property as accepting an empty value.
func (p *PropertyBuilder[T]) Optional() *PropertyBuilder[T] {
	p.d.Optional = true
	return p
}

// Set makes the property editable. The returned owner replaces the old one,
// so view models return a modified copy while entities return themselves.
func (p *PropertyBuilder[T]) Set(fn func(owner T, value any) (T, error)) *PropertyBuilder[T] {
	p.d.Set = func(owner any, value any) (any, error) {
		v, err := cast[T](owner)
		if err != nil {
			return nil, err
		}
		return fn(v, value)
	}
	return p
}

// HiddenWhen hides the property while pred holds.
func (p *PropertyBuilder[T]) HiddenWhen(pred func(T) bool, reason string) *PropertyBuilder[T] {
	p.d.Hidden = when(pred, reason)
	return p
}

// DisabledWhen makes the property read-only while pred holds.
func (p *PropertyBuilder[T]) DisabledWhen(pred func(T) bool, reason string) *PropertyBuilder[T] {
	p.d.Disabled = when(pred, reason)
	return p
}

// Validate checks a proposed value. A non-empty return is the veto reason.
func (p *PropertyBuilder[T]) Validate(fn func(owner T, proposed any) string) *PropertyBuilder[T] {
	p.d.Validate = func(rc metamodel.RuleContext, proposed metamodel.ManagedObject) (domain.Consent, error) {
		v, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return domain.Consent{}, err
		}
		return consent(fn(v, proposed.Pojo)), nil
	}
	return p
}

// Choices restricts the property to the listed values.
func (p *PropertyBuilder[T]) Choices(fn func(T) []any) *PropertyBuilder[T] {
	p.d.Choices = func(rc metamodel.RuleContext) ([]any, error) {
		v, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return nil, err
		}
		return fn(v), nil
	}
	return p
}

// CollectionBuilder configures a collection of T.
type CollectionBuilder[T any] struct {
	d *metamodel.CollectionDescriptor
}

func (c *CollectionBuilder[T]) Name(name string) *CollectionBuilder[T] {
	c.d.Name = name
	return c
}

// HiddenWhen hides the collection while pred holds.
func (c *CollectionBuilder[T]) HiddenWhen(pred func(T) bool, reason string) *CollectionBuilder[T] {
	c.d.Hidden = when(pred, reason)
	return c
}

// DisabledWhen disables the collection while pred holds.
func (c *CollectionBuilder[T]) DisabledWhen(pred func(T) bool, reason string) *CollectionBuilder[T] {
	c.d.Disabled = when(pred, reason)
	return c
}
