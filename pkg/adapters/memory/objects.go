package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Identifiable pojos choose their own identifier instead of a generated one.
type Identifiable interface {
	Identifier() string
}

// ObjectManager implements ports.ObjectManager in memory. Value types are
// bookmarked by their encoded content; entities and view models are tracked
// by instance and get a random identifier the first time they are bookmarked.
// Safe for concurrent use.
type ObjectManager struct {
	registry *metamodel.Registry

	mu    sync.RWMutex
	ids   map[any]string
	pojos map[domain.Bookmark]any
}

// NewObjectManager creates an object manager over registry.
func NewObjectManager(registry *metamodel.Registry) *ObjectManager {
	return &ObjectManager{
		registry: registry,
		ids:      make(map[any]string),
		pojos:    make(map[domain.Bookmark]any),
	}
}

// Adapt wraps pojo with the spec the registry knows for it.
func (m *ObjectManager) Adapt(pojo any) (metamodel.ManagedObject, error) {
	return m.registry.Adapt(pojo)
}

// Put adapts pojo and bookmarks it in one go.
func (m *ObjectManager) Put(pojo any) (metamodel.ManagedObject, domain.Bookmark, error) {
	obj, err := m.Adapt(pojo)
	if err != nil {
		return metamodel.ManagedObject{}, domain.Bookmark{}, err
	}
	b, err := m.Bookmark(obj)
	if err != nil {
		return metamodel.ManagedObject{}, domain.Bookmark{}, err
	}
	return obj, b, nil
}

// Bookmark returns the content identity of obj.
func (m *ObjectManager) Bookmark(obj metamodel.ManagedObject) (domain.Bookmark, error) {
	if obj.Spec == nil || obj.IsPacked() || obj.IsEmpty() {
		return domain.Bookmark{}, fmt.Errorf("%w: %s", domain.ErrNotBookmarkable, obj.LogicalTypeName())
	}
	typeName := obj.Spec.LogicalTypeName

	if obj.Spec.Kind.IsValue() {
		if obj.Spec.Encode == nil {
			return domain.Bookmark{}, fmt.Errorf("%w: value type %s has no encoder", domain.ErrNotBookmarkable, typeName)
		}
		text, err := obj.Spec.Encode(obj.Pojo)
		if err != nil {
			return domain.Bookmark{}, fmt.Errorf("encode %s: %w", typeName, err)
		}
		return domain.Bookmark{LogicalTypeName: typeName, Identifier: text}, nil
	}

	if !metamodel.Hashable(obj.Pojo) {
		return domain.Bookmark{}, fmt.Errorf("%w: %T has no instance identity", domain.ErrNotBookmarkable, obj.Pojo)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[obj.Pojo]; ok {
		return domain.Bookmark{LogicalTypeName: typeName, Identifier: id}, nil
	}
	var id string
	if idf, ok := obj.Pojo.(Identifiable); ok && idf.Identifier() != "" {
		id = idf.Identifier()
	} else {
		id = uuid.New().String()
	}
	b := domain.Bookmark{LogicalTypeName: typeName, Identifier: id}
	m.ids[obj.Pojo] = id
	m.pojos[b] = obj.Pojo
	return b, nil
}

// Resolve reconstructs the object a bookmark stands for.
func (m *ObjectManager) Resolve(ctx context.Context, b domain.Bookmark) (metamodel.ManagedObject, error) {
	spec, ok := m.registry.Spec(b.LogicalTypeName)
	if !ok {
		return metamodel.ManagedObject{}, fmt.Errorf("%w: %s", domain.ErrUnknownType, b.LogicalTypeName)
	}

	if spec.Kind.IsValue() {
		if spec.Decode == nil {
			return metamodel.ManagedObject{}, fmt.Errorf("%w: value type %s has no decoder", domain.ErrNotBookmarkable, spec.LogicalTypeName)
		}
		v, err := spec.Decode(b.Identifier)
		if err != nil {
			return metamodel.ManagedObject{}, fmt.Errorf("decode %s: %w", b, err)
		}
		return metamodel.Of(spec, v), nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	pojo, ok := m.pojos[b]
	if !ok {
		return metamodel.ManagedObject{}, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, b)
	}
	return metamodel.Of(spec, pojo), nil
}
