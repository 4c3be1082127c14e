package metamodel

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Typed is implemented by pojos that know their logical type name.
type Typed interface {
	LogicalTypeName() string
}

// Registry is the metamodel: specs by logical type name, built once at load
// time. Lookups are plain map reads and safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	specs    map[string]*ObjectSpec
	byGoType map[reflect.Type]*ObjectSpec
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:    make(map[string]*ObjectSpec),
		byGoType: make(map[reflect.Type]*ObjectSpec),
	}
}

// Register validates spec and indexes its members.
// Registering a type name twice is an error.
func (r *Registry) Register(spec *ObjectSpec) error {
	if spec == nil || spec.LogicalTypeName == "" {
		return errors.New("spec must have a logical type name")
	}
	if err := index(spec); err != nil {
		return fmt.Errorf("type %s: %w", spec.LogicalTypeName, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.LogicalTypeName]; exists {
		return fmt.Errorf("type %s already registered", spec.LogicalTypeName)
	}
	r.specs[spec.LogicalTypeName] = spec
	if spec.GoType != nil {
		if _, taken := r.byGoType[spec.GoType]; !taken {
			r.byGoType[spec.GoType] = spec
		}
	}
	return nil
}

// MustRegister is Register for static model setup.
func (r *Registry) MustRegister(specs ...*ObjectSpec) *Registry {
	for _, s := range specs {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

func index(spec *ObjectSpec) error {
	ids := make(map[string]domain.MemberType)
	claim := func(id string, mt domain.MemberType) error {
		if id == "" {
			return fmt.Errorf("%s without id", mt)
		}
		if prev, dup := ids[id]; dup {
			return fmt.Errorf("member id %q used by both %s and %s", id, prev, mt)
		}
		ids[id] = mt
		return nil
	}

	spec.actionIdx = make(map[string]*ActionDescriptor, len(spec.Actions))
	for _, a := range spec.Actions {
		if err := claim(a.ID, domain.MemberAction); err != nil {
			return err
		}
		if a.Semantics == "" {
			a.Semantics = domain.SemanticsNonIdempotent
		}
		for i, p := range a.Params {
			p.Index = i
			if p.AutoComplete != nil && p.Choices != nil {
				return fmt.Errorf("action %s param %s: choices and autocomplete are exclusive", a.ID, p.ID)
			}
		}
		spec.actionIdx[a.ID] = a
	}
	spec.propertyIdx = make(map[string]*PropertyDescriptor, len(spec.Properties))
	for _, p := range spec.Properties {
		if err := claim(p.ID, domain.MemberProperty); err != nil {
			return err
		}
		spec.propertyIdx[p.ID] = p
	}
	spec.collectionIdx = make(map[string]*CollectionDescriptor, len(spec.Collections))
	for _, c := range spec.Collections {
		if err := claim(c.ID, domain.MemberCollection); err != nil {
			return err
		}
		spec.collectionIdx[c.ID] = c
	}
	if spec.CompositeMixin != "" {
		if _, ok := spec.actionIdx[spec.CompositeMixin]; !ok {
			return fmt.Errorf("composite mixin action %q not declared", spec.CompositeMixin)
		}
	}
	return nil
}

// Spec returns the spec registered under name.
func (r *Registry) Spec(name string) (*ObjectSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// SpecFor finds the spec of a pojo, by its LogicalTypeName method if it has
// one, otherwise by its Go type.
func (r *Registry) SpecFor(pojo any) (*ObjectSpec, bool) {
	if pojo == nil {
		return nil, false
	}
	if t, ok := pojo.(Typed); ok {
		return r.Spec(t.LogicalTypeName())
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byGoType[reflect.TypeOf(pojo)]
	return s, ok
}

// Specs returns all specs ordered by type name.
func (r *Registry) Specs() []*ObjectSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ObjectSpec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogicalTypeName < out[j].LogicalTypeName })
	return out
}

// Validate checks that every type referenced by a member is registered.
func (r *Registry) Validate() error {
	var errs []error
	check := func(owner, member, typeName string) {
		if typeName == "" {
			return
		}
		if _, ok := r.Spec(typeName); !ok {
			errs = append(errs, fmt.Errorf("%s.%s: %w: %s", owner, member, domain.ErrUnknownType, typeName))
		}
	}
	for _, s := range r.Specs() {
		for _, a := range s.Actions {
			check(s.LogicalTypeName, a.ID, a.ReturnType)
			for _, p := range a.Params {
				check(s.LogicalTypeName, a.ID+"."+p.ID, p.TypeName)
			}
		}
		for _, p := range s.Properties {
			check(s.LogicalTypeName, p.ID, p.TypeName)
		}
		for _, c := range s.Collections {
			check(s.LogicalTypeName, c.ID, c.ElementType)
		}
	}
	return errors.Join(errs...)
}

// Adapt wraps pojo using the spec the registry knows for it.
func (r *Registry) Adapt(pojo any) (ManagedObject, error) {
	spec, ok := r.SpecFor(pojo)
	if !ok {
		return ManagedObject{}, fmt.Errorf("%w: %T", domain.ErrUnknownType, pojo)
	}
	return Of(spec, pojo), nil
}
