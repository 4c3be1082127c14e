package dsl

import (
	"fmt"
	"reflect"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Builder collects object specs in declaration order.
type Builder struct {
	specs []*metamodel.ObjectSpec
}

// New creates a new model builder.
func New() *Builder {
	return &Builder{}
}

// Entity declares an entity type backed by Go values of type T.
// Entities are usually declared over pointer types so setters can mutate them.
func Entity[T any](b *Builder, name string) *TypeBuilder[T] {
	return declare[T](b, name, metamodel.KindEntity)
}

// ViewModel declares an immutable view model backed by values of type T.
// Property setters return the replacement value.
func ViewModel[T any](b *Builder, name string) *TypeBuilder[T] {
	return declare[T](b, name, metamodel.KindViewModel)
}

func declare[T any](b *Builder, name string, kind metamodel.Kind) *TypeBuilder[T] {
	spec := &metamodel.ObjectSpec{
		LogicalTypeName: name,
		Kind:            kind,
		GoType:          reflect.TypeFor[T](),
	}
	b.specs = append(b.specs, spec)
	return &TypeBuilder[T]{spec: spec}
}

// Build registers every declared spec into a new registry.
func (b *Builder) Build() (*metamodel.Registry, error) {
	reg := metamodel.NewRegistry()
	for _, s := range b.specs {
		if err := reg.Register(s); err != nil {
			return nil, fmt.Errorf("failed to build registry: %w", err)
		}
	}
	return reg, nil
}

// MustBuild is Build for static model setup.
func (b *Builder) MustBuild() *metamodel.Registry {
	reg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return reg
}

// cast converts a pojo handed over by the framework into T.
func cast[T any](pojo any) (T, error) {
	v, ok := pojo.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("expected %T, got %T", zero, pojo)
	}
	return v, nil
}

// when turns a predicate over the owner into a rule that vetoes with reason.
func when[T any](pred func(T) bool, reason string) metamodel.Rule {
	return func(rc metamodel.RuleContext) (domain.Consent, error) {
		owner, err := cast[T](rc.Owner.Pojo)
		if err != nil {
			return domain.Consent{}, err
		}
		if pred(owner) {
			return domain.Veto(reason), nil
		}
		return domain.Allow(), nil
	}
}

// consent maps an empty reason to Allow.
func consent(reason string) domain.Consent {
	if reason == "" {
		return domain.Allow()
	}
	return domain.Veto(reason)
}
