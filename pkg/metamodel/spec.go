package metamodel

import "reflect"

// Kind is the sort of object a spec describes.
type Kind string

const (
	KindEntity    Kind = "entity"
	KindViewModel Kind = "view_model"
	KindValue     Kind = "value"
	// KindComposite is a value type edited through a mixin action instead of
	// a plain field edit.
	KindComposite Kind = "composite"
)

// IsValue reports whether objects of this kind are identified by content.
func (k Kind) IsValue() bool { return k == KindValue || k == KindComposite }

// ObjectSpec describes one logical type: its members and, for value types,
// how its instances are encoded into content identifiers.
type ObjectSpec struct {
	LogicalTypeName string
	Kind            Kind
	// GoType lets the registry find the spec for a plain Go value.
	GoType reflect.Type

	TitleFunc func(pojo any) string
	// Encode and Decode give value types their content identity.
	Encode func(pojo any) (string, error)
	Decode func(text string) (any, error)
	// EmptyValue builds the value used when a composite is edited while absent.
	EmptyValue func() any
	// CompositeMixin is the id of the action on this spec that edits a
	// composite value. The action receives the current value as target and
	// returns the replacement.
	CompositeMixin string

	Actions     []*ActionDescriptor
	Properties  []*PropertyDescriptor
	Collections []*CollectionDescriptor

	actionIdx     map[string]*ActionDescriptor
	propertyIdx   map[string]*PropertyDescriptor
	collectionIdx map[string]*CollectionDescriptor
}

// Action looks up an action by id.
func (s *ObjectSpec) Action(id string) (*ActionDescriptor, bool) {
	if s.actionIdx != nil {
		a, ok := s.actionIdx[id]
		return a, ok
	}
	for _, a := range s.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Property looks up a property by id.
func (s *ObjectSpec) Property(id string) (*PropertyDescriptor, bool) {
	if s.propertyIdx != nil {
		p, ok := s.propertyIdx[id]
		return p, ok
	}
	for _, p := range s.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Collection looks up a collection by id.
func (s *ObjectSpec) Collection(id string) (*CollectionDescriptor, bool) {
	if s.collectionIdx != nil {
		c, ok := s.collectionIdx[id]
		return c, ok
	}
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// IsComposite reports whether values of this type are edited via a mixin.
func (s *ObjectSpec) IsComposite() bool {
	return s.Kind == KindComposite && s.CompositeMixin != ""
}
