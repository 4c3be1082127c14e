package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// ObjectManager maps plain domain objects to managed handles and to and from
// content identifiers. The interaction core only ever handles the opaque
// bookmarks it returns.
type ObjectManager interface {
	// Adapt wraps a pojo into a managed object.
	Adapt(pojo any) (metamodel.ManagedObject, error)

	// Bookmark returns the content identity of obj.
	// Returns domain.ErrNotBookmarkable for objects without one.
	Bookmark(obj metamodel.ManagedObject) (domain.Bookmark, error)

	// Resolve reconstructs a managed object from a bookmark.
	Resolve(ctx context.Context, bookmark domain.Bookmark) (metamodel.ManagedObject, error)
}

// ServiceInjector injects declared collaborators into a freshly produced pojo.
type ServiceInjector interface {
	Inject(pojo any) error
}

// RoutingService may substitute a different object for the one an action
// literally returned.
type RoutingService interface {
	CanRoute(pojo any) bool
	Route(ctx context.Context, pojo any) (any, error)
}

// InjectorFunc adapts a function to ServiceInjector.
type InjectorFunc func(pojo any) error

func (f InjectorFunc) Inject(pojo any) error { return f(pojo) }
