package metamodel

import "fmt"

// ManagedObject is a domain object (pojo) paired with its specification.
// A nil Pojo denotes the empty value of the type. Plural values are packed:
// they carry their elements instead of a single pojo.
type ManagedObject struct {
	Spec *ObjectSpec
	Pojo any

	packed   bool
	elements []ManagedObject
}

// Of wraps pojo with its spec.
func Of(spec *ObjectSpec, pojo any) ManagedObject {
	return ManagedObject{Spec: spec, Pojo: pojo}
}

// Empty returns the empty value typed to spec.
func Empty(spec *ObjectSpec) ManagedObject {
	return ManagedObject{Spec: spec}
}

// Packed builds a plural value whose elements are of type spec.
func Packed(spec *ObjectSpec, elements []ManagedObject) ManagedObject {
	cp := make([]ManagedObject, len(elements))
	copy(cp, elements)
	return ManagedObject{Spec: spec, packed: true, elements: cp}
}

func (m ManagedObject) IsPacked() bool { return m.packed }

// Elements returns the elements of a packed value, or the value itself as a
// single element list when it is a non-empty scalar.
func (m ManagedObject) Elements() []ManagedObject {
	if m.packed {
		out := make([]ManagedObject, len(m.elements))
		copy(out, m.elements)
		return out
	}
	if m.IsEmpty() {
		return nil
	}
	return []ManagedObject{m}
}

// IsEmpty reports whether m holds no value. A packed value is empty when it
// has no elements.
func (m ManagedObject) IsEmpty() bool {
	if m.packed {
		return len(m.elements) == 0
	}
	return m.Pojo == nil
}

// LogicalTypeName returns the spec's type name, or "" when untyped.
func (m ManagedObject) LogicalTypeName() string {
	if m.Spec == nil {
		return ""
	}
	return m.Spec.LogicalTypeName
}

// Title renders a human-readable label for the object.
func (m ManagedObject) Title() string {
	if m.packed {
		return fmt.Sprintf("%d %s", len(m.elements), m.LogicalTypeName())
	}
	if m.Pojo == nil {
		return ""
	}
	if m.Spec != nil && m.Spec.TitleFunc != nil {
		return m.Spec.TitleFunc(m.Pojo)
	}
	return fmt.Sprint(m.Pojo)
}

// Pojos unwraps a packed value into its element pojos.
func (m ManagedObject) Pojos() []any {
	elems := m.Elements()
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.Pojo)
	}
	return out
}
