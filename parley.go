package parley

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/binding"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/interaction"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/ports"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Framework is the high-level entry point of the library. It binds a
// registry to the collaborators members need and starts interactions.
type Framework struct {
	registry *metamodel.Registry
	objects  ports.ObjectManager
	injector ports.ServiceInjector
	routing  []ports.RoutingService
	types    []binding.ValueType
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	env      *managed.Env
}

// Option defines a functional option for configuring the Framework.
type Option func(*Framework)

// WithObjectManager replaces the default in-memory object manager.
func WithObjectManager(om ports.ObjectManager) Option {
	return func(f *Framework) {
		f.objects = om
	}
}

// WithInjector injects collaborators into objects produced by actions.
func WithInjector(inj ports.ServiceInjector) Option {
	return func(f *Framework) {
		f.injector = inj
	}
}

// WithRoutingServices registers result routing. Earlier services take
// priority.
func WithRoutingServices(services ...ports.RoutingService) Option {
	return func(f *Framework) {
		f.routing = append(f.routing, services...)
	}
}

// WithValueTypes adds value types next to the built-ins.
func WithValueTypes(types ...binding.ValueType) Option {
	return func(f *Framework) {
		f.types = append(f.types, types...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Framework) {
		f.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Framework) {
		f.logger = logger
	}
}

// New initializes a Framework over registry. Value specs for the built-in
// and configured value types are registered, then every member type
// reference is checked.
func New(registry *metamodel.Registry, opts ...Option) (*Framework, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	f := &Framework{registry: registry}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.NewNop()
	}

	types := binding.NewTypes(f.types...)
	if err := types.RegisterSpecs(registry); err != nil {
		return nil, fmt.Errorf("failed to register value types: %w", err)
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	if f.objects == nil {
		f.objects = memory.NewObjectManager(registry)
	}

	f.env = managed.NewEnv(registry,
		managed.WithObjectManager(f.objects),
		managed.WithInjector(f.injector),
		managed.WithRouting(f.routing...),
		managed.WithFormatter(binding.NewFormatter(types)),
		managed.WithLogger(f.logger),
		managed.WithHooks(f.hooks),
	)
	f.logger.Debug("framework initialized", "types", len(registry.Specs()))
	return f, nil
}

// Env returns the environment interactions run in.
func (f *Framework) Env() *managed.Env { return f.env }

func (f *Framework) Registry() *metamodel.Registry { return f.registry }

func (f *Framework) Objects() ports.ObjectManager { return f.objects }

// Adapt wraps a plain domain object.
func (f *Framework) Adapt(pojo any) (metamodel.ManagedObject, error) {
	return f.objects.Adapt(pojo)
}

// Bookmark returns the content identity of pojo, registering it with the
// object manager if needed.
func (f *Framework) Bookmark(pojo any) (domain.Bookmark, error) {
	obj, err := f.Adapt(pojo)
	if err != nil {
		return domain.Bookmark{}, err
	}
	return f.objects.Bookmark(obj)
}

// Resolve reads a bookmark in "<type>:<id>" form.
func (f *Framework) Resolve(ctx context.Context, bookmark string) (metamodel.ManagedObject, error) {
	b, err := domain.ParseBookmark(bookmark)
	if err != nil {
		return metamodel.ManagedObject{}, err
	}
	return f.objects.Resolve(ctx, b)
}

// Action starts an interaction with action id of owner.
func (f *Framework) Action(ctx context.Context, owner metamodel.ManagedObject, id string, where domain.Where) *interaction.ActionInteraction {
	return interaction.StartAction(ctx, f.env, owner, id, where)
}

// Property starts an interaction with property id of owner.
func (f *Framework) Property(ctx context.Context, owner metamodel.ManagedObject, id string, where domain.Where) *interaction.PropertyInteraction {
	return interaction.StartProperty(ctx, f.env, owner, id, where)
}

// Collection starts an interaction with collection id of owner.
func (f *Framework) Collection(ctx context.Context, owner metamodel.ManagedObject, id string, where domain.Where) *interaction.CollectionInteraction {
	return interaction.StartCollection(ctx, f.env, owner, id, where)
}
