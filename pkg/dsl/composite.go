package dsl

import (
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// CompositeBuilder configures a composite value type: a value that is edited
// as a whole through its mixin action instead of property by property.
type CompositeBuilder[T any] struct {
	*TypeBuilder[T]
}

// Composite declares a composite value type backed by values of type T.
// Declare its mixin with Mixin before building.
func Composite[T any](b *Builder, name string) *CompositeBuilder[T] {
	return &CompositeBuilder[T]{declare[T](b, name, metamodel.KindComposite)}
}

// Codec gives the composite its content identity, so values can be
// bookmarked and parsed back.
func (c *CompositeBuilder[T]) Codec(encode func(T) string, decode func(string) (T, error)) *CompositeBuilder[T] {
	c.spec.Encode = func(pojo any) (string, error) {
		v, err := cast[T](pojo)
		if err != nil {
			return "", err
		}
		return encode(v), nil
	}
	c.spec.Decode = func(text string) (any, error) { return decode(text) }
	return c
}

// Empty sets the value edited when the composite is absent. Defaults to the
// zero value of T.
func (c *CompositeBuilder[T]) Empty(fn func() T) *CompositeBuilder[T] {
	c.spec.EmptyValue = func() any { return fn() }
	return c
}

// Mixin declares the action that edits a composite. edit receives the
// current value as target and returns its replacement. Rules declared on the
// returned builder see the owner of the member being edited, which is why
// they are typed over any.
func (c *CompositeBuilder[T]) Mixin(id string, edit func(target T, args []any) (T, error)) *ActionBuilder[any] {
	if c.spec.EmptyValue == nil {
		c.spec.EmptyValue = func() any { var zero T; return zero }
	}
	d := &metamodel.ActionDescriptor{
		ID:         id,
		ReturnType: c.spec.LogicalTypeName,
		Semantics:  domain.SemanticsIdempotent,
		Invoke: func(ic metamodel.InvocationContext) (any, error) {
			var target T
			if !ic.Target.IsEmpty() {
				v, err := cast[T](ic.Target.Pojo)
				if err != nil {
					return nil, err
				}
				target = v
			}
			return edit(target, pojos(metamodel.ArgList(ic.Args)))
		},
	}
	c.spec.Actions = append(c.spec.Actions, d)
	c.spec.CompositeMixin = id
	return &ActionBuilder[any]{d: d}
}
