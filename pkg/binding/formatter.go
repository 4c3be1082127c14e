// Package binding converts managed values to and from their title, HTML and
// parsable-text representations, using a pluggable value type per logical type.
package binding

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/metamodel"
)

// Types is a registry of value types by logical type name.
type Types struct {
	mu    sync.RWMutex
	types map[string]ValueType
}

// NewTypes creates a registry holding the built-ins plus extra.
func NewTypes(extra ...ValueType) *Types {
	t := &Types{types: make(map[string]ValueType)}
	for _, vt := range Builtins() {
		t.Register(vt)
	}
	for _, vt := range extra {
		t.Register(vt)
	}
	return t
}

// Register adds a value type. An existing type of the same name is replaced.
func (t *Types) Register(vt ValueType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types[vt.Name()] = vt
}

// Lookup returns the value type registered under name.
func (t *Types) Lookup(name string) (ValueType, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	vt, ok := t.types[name]
	return vt, ok
}

// All returns every registered value type.
func (t *Types) All() []ValueType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ValueType, 0, len(t.types))
	for _, vt := range t.types {
		out = append(out, vt)
	}
	return out
}

// ValueSpec builds the object spec of a value type: its content identity is
// its parsable text.
func ValueSpec(vt ValueType) *metamodel.ObjectSpec {
	return &metamodel.ObjectSpec{
		LogicalTypeName: vt.Name(),
		Kind:            metamodel.KindValue,
		GoType:          vt.GoType(),
		Encode:          vt.Format,
		Decode:          vt.Parse,
		TitleFunc: func(pojo any) string {
			if r, ok := vt.(Renderer); ok {
				return r.Title(pojo)
			}
			s, err := vt.Format(pojo)
			if err != nil {
				return fmt.Sprint(pojo)
			}
			return s
		},
	}
}

// RegisterSpecs registers a value spec for every type not yet known to reg.
func (t *Types) RegisterSpecs(reg *metamodel.Registry) error {
	for _, vt := range t.All() {
		if _, exists := reg.Spec(vt.Name()); exists {
			continue
		}
		if err := reg.Register(ValueSpec(vt)); err != nil {
			return err
		}
	}
	return nil
}

// Formatter renders and parses managed values.
type Formatter struct {
	types *Types
}

// NewFormatter creates a formatter over types; nil means built-ins only.
func NewFormatter(types *Types) *Formatter {
	if types == nil {
		types = NewTypes()
	}
	return &Formatter{types: types}
}

// Types returns the underlying value type registry.
func (f *Formatter) Types() *Types { return f.types }

// Title renders the human-readable label of obj. Plural values list their
// element titles.
func (f *Formatter) Title(obj metamodel.ManagedObject) string {
	if obj.IsPacked() {
		titles := make([]string, 0, len(obj.Elements()))
		for _, e := range obj.Elements() {
			titles = append(titles, f.Title(e))
		}
		return strings.Join(titles, ", ")
	}
	if obj.IsEmpty() {
		return ""
	}
	if vt, ok := f.types.Lookup(obj.LogicalTypeName()); ok {
		if r, ok := vt.(Renderer); ok {
			return r.Title(obj.Pojo)
		}
		if s, err := vt.Format(obj.Pojo); err == nil {
			return s
		}
	}
	return obj.Title()
}

// HTML renders obj for an HTML viewer. Text is always escaped unless the value
// type renders its own markup.
func (f *Formatter) HTML(obj metamodel.ManagedObject) string {
	if !obj.IsPacked() && !obj.IsEmpty() {
		if vt, ok := f.types.Lookup(obj.LogicalTypeName()); ok {
			if r, ok := vt.(Renderer); ok {
				return r.HTML(obj.Pojo)
			}
		}
	}
	return html.EscapeString(f.Title(obj))
}

// ParsableText renders obj so that Parse can read it back. Plural values are
// comma separated.
func (f *Formatter) ParsableText(obj metamodel.ManagedObject) (string, error) {
	if obj.IsPacked() {
		parts := make([]string, 0, len(obj.Elements()))
		for _, e := range obj.Elements() {
			s, err := f.ParsableText(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	}
	if obj.IsEmpty() {
		return "", nil
	}
	if vt, ok := f.types.Lookup(obj.LogicalTypeName()); ok {
		return vt.Format(obj.Pojo)
	}
	if obj.Spec != nil && obj.Spec.Encode != nil {
		return obj.Spec.Encode(obj.Pojo)
	}
	return "", fmt.Errorf("type %s has no parsable text representation", obj.LogicalTypeName())
}

// Parse reads text as a value of spec. Empty text yields the empty value.
func (f *Formatter) Parse(spec *metamodel.ObjectSpec, text string) (metamodel.ManagedObject, error) {
	if spec == nil {
		return metamodel.ManagedObject{}, fmt.Errorf("cannot parse %q without a type", text)
	}
	if text == "" {
		return metamodel.Empty(spec), nil
	}
	if vt, ok := f.types.Lookup(spec.LogicalTypeName); ok {
		v, err := vt.Parse(text)
		if err != nil {
			return metamodel.ManagedObject{}, err
		}
		return metamodel.Of(spec, v), nil
	}
	if spec.Decode != nil {
		v, err := spec.Decode(text)
		if err != nil {
			return metamodel.ManagedObject{}, err
		}
		return metamodel.Of(spec, v), nil
	}
	return metamodel.ManagedObject{}, fmt.Errorf("type %s is not parsable", spec.LogicalTypeName)
}
