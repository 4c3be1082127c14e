package managed

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/ports"
)

// ArgsMemento is an argument list reduced to bookmarks, for replaying an
// invocation later.
type ArgsMemento struct {
	ActionID string                `json:"action_id"`
	Args     []domain.PendingParam `json:"args"`
}

// MementoForArgs bookmarks args. Every value must be bookmarkable.
func (a *Action) MementoForArgs(args []metamodel.ManagedObject) (ArgsMemento, error) {
	if a.env.Objects == nil {
		return ArgsMemento{}, fmt.Errorf("memento for %s: no object manager", a.id)
	}
	if len(args) != a.desc.ParamCount() {
		return ArgsMemento{}, fmt.Errorf("memento for %s: expected %d arguments, got %d", a.id, a.desc.ParamCount(), len(args))
	}
	m := ArgsMemento{ActionID: a.id, Args: make([]domain.PendingParam, len(args))}
	for i, p := range a.desc.Params {
		pp, err := EncodeArg(a.env.Objects, p, args[i])
		if err != nil {
			return ArgsMemento{}, fmt.Errorf("memento for %s: %w", a.id, err)
		}
		m.Args[i] = pp
	}
	return m, nil
}

// Restore resolves the bookmarks back into an argument list.
func (m ArgsMemento) Restore(ctx context.Context, env *Env) ([]metamodel.ManagedObject, error) {
	args := make([]metamodel.ManagedObject, len(m.Args))
	for i, pp := range m.Args {
		obj, err := DecodeArg(ctx, env, pp)
		if err != nil {
			return nil, fmt.Errorf("restore %s arg %d: %w", m.ActionID, i, err)
		}
		args[i] = obj
	}
	return args, nil
}

// EncodeArg bookmarks the value of param. The cardinality of the parameter is
// recorded next to the bookmarks.
func EncodeArg(objects ports.ObjectManager, param *metamodel.ParameterDescriptor, value metamodel.ManagedObject) (domain.PendingParam, error) {
	pp := domain.PendingParam{Plural: param.Plural, ElementType: param.TypeName}
	for _, el := range value.Elements() {
		b, err := objects.Bookmark(el)
		if err != nil {
			return domain.PendingParam{}, fmt.Errorf("param %s: %w", param.ID, err)
		}
		pp.Bookmarks = append(pp.Bookmarks, b)
	}
	return pp, nil
}

// DecodeArg resolves a parameter slot. Plural slots always become packed
// values; scalar slots hold at most one bookmark.
func DecodeArg(ctx context.Context, env *Env, pp domain.PendingParam) (metamodel.ManagedObject, error) {
	if env.Objects == nil {
		return metamodel.ManagedObject{}, fmt.Errorf("no object manager")
	}
	spec := env.spec(pp.ElementType)
	if !pp.Plural && len(pp.Bookmarks) > 1 {
		return metamodel.ManagedObject{}, fmt.Errorf("scalar parameter with %d values", len(pp.Bookmarks))
	}
	elems := make([]metamodel.ManagedObject, 0, len(pp.Bookmarks))
	for _, b := range pp.Bookmarks {
		obj, err := env.Objects.Resolve(ctx, b)
		if err != nil {
			return metamodel.ManagedObject{}, fmt.Errorf("resolve %s: %w", b, err)
		}
		elems = append(elems, obj)
	}
	if pp.Plural {
		return metamodel.Packed(spec, elems), nil
	}
	if len(elems) == 0 {
		return metamodel.Empty(spec), nil
	}
	return elems[0], nil
}
