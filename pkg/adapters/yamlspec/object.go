package yamlspec

import (
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Object is the pojo of every type declared in a model file: a named bag of
// fields. Safe for concurrent use.
type Object struct {
	typeName string
	id       string

	mu     sync.RWMutex
	fields map[string]any
}

// NewObject creates an object of typeName. An empty id is replaced by a
// random one.
func NewObject(typeName, id string, fields map[string]any) *Object {
	if id == "" {
		id = uuid.NewString()
	}
	o := &Object{typeName: typeName, id: id, fields: make(map[string]any, len(fields))}
	maps.Copy(o.fields, fields)
	return o
}

func (o *Object) LogicalTypeName() string { return o.typeName }

// Identifier is the object's bookmark identifier.
func (o *Object) Identifier() string { return o.id }

func (o *Object) Get(field string) any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.fields[field]
}

func (o *Object) Set(field string, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields[field] = v
}

// Append adds v to the list held in field.
func (o *Object) Append(field string, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	list, _ := o.fields[field].([]any)
	o.fields[field] = append(list, v)
}

// List returns the list held in field.
func (o *Object) List(field string) []any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	list, _ := o.fields[field].([]any)
	return append([]any(nil), list...)
}

// With returns a copy of o with field set to v. View models are changed
// this way so that earlier references keep their state.
func (o *Object) With(field string, v any) *Object {
	o.mu.RLock()
	cp := NewObject(o.typeName, "", o.fields)
	o.mu.RUnlock()
	cp.fields[field] = v
	return cp
}

// FieldNames returns the field names, sorted.
func (o *Object) FieldNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.fields))
	for k := range o.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Fields projects the object into plain maps for rule evaluation. Nested
// objects are projected a few levels deep; "id" holds the identifier.
func (o *Object) Fields() map[string]any {
	return o.project(3)
}

func (o *Object) project(depth int) map[string]any {
	o.mu.RLock()
	fields := maps.Clone(o.fields)
	o.mu.RUnlock()

	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = projectValue(v, depth-1)
	}
	out["id"] = o.id
	return out
}

func projectValue(v any, depth int) any {
	switch x := v.(type) {
	case *Object:
		if depth <= 0 {
			return x.id
		}
		return x.project(depth)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = projectValue(e, depth)
		}
		return out
	}
	return v
}
