// Package managed binds reflected members to a concrete owner object and runs
// their rules, invocations and pending-parameter negotiations.
//
// Nothing in this package is global: every member carries the Env it was
// looked up with.
package managed

import (
	"log/slog"
	"reflect"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/binding"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/ports"
)

// Env bundles the collaborators members need.
type Env struct {
	Registry *metamodel.Registry
	Objects  ports.ObjectManager
	Injector ports.ServiceInjector
	// Routing is consulted in order; the first service that claims a result
	// replaces it.
	Routing   []ports.RoutingService
	Formatter *binding.Formatter
	Logger    *slog.Logger
	Hooks     domain.LifecycleHooks
}

// EnvOption configures an Env.
type EnvOption func(*Env)

func WithObjectManager(om ports.ObjectManager) EnvOption {
	return func(e *Env) { e.Objects = om }
}

func WithInjector(inj ports.ServiceInjector) EnvOption {
	return func(e *Env) { e.Injector = inj }
}

// WithRouting appends routing services, keeping their order as priority.
func WithRouting(services ...ports.RoutingService) EnvOption {
	return func(e *Env) { e.Routing = append(e.Routing, services...) }
}

func WithFormatter(f *binding.Formatter) EnvOption {
	return func(e *Env) { e.Formatter = f }
}

func WithLogger(logger *slog.Logger) EnvOption {
	return func(e *Env) { e.Logger = logger }
}

func WithHooks(hooks domain.LifecycleHooks) EnvOption {
	return func(e *Env) { e.Hooks = hooks }
}

// NewEnv creates an Env over registry. Without options it formats with the
// built-in value types and logs nowhere.
func NewEnv(registry *metamodel.Registry, opts ...EnvOption) *Env {
	e := &Env{Registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	if e.Formatter == nil {
		e.Formatter = binding.NewFormatter(nil)
	}
	if e.Logger == nil {
		e.Logger = logging.NewNop()
	}
	return e
}

func (e *Env) log() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

func (e *Env) formatter() *binding.Formatter {
	if e.Formatter == nil {
		return binding.NewFormatter(nil)
	}
	return e.Formatter
}

func (e *Env) spec(typeName string) *metamodel.ObjectSpec {
	if e.Registry == nil || typeName == "" {
		return nil
	}
	s, _ := e.Registry.Spec(typeName)
	return s
}

// adapt wraps a raw value returned by domain code. Slices become packed values
// of declared; other values use the registry's spec for their dynamic type and
// fall back to declared.
func (e *Env) adapt(declared *metamodel.ObjectSpec, raw any) metamodel.ManagedObject {
	switch v := raw.(type) {
	case nil:
		return metamodel.Empty(declared)
	case metamodel.ManagedObject:
		return v
	}
	if e.Registry != nil {
		if s, ok := e.Registry.SpecFor(raw); ok {
			return metamodel.Of(s, raw)
		}
	}
	if list, ok := sliceElements(raw); ok {
		elems := make([]metamodel.ManagedObject, 0, len(list))
		for _, el := range list {
			elems = append(elems, e.adapt(declared, el))
		}
		return metamodel.Packed(declared, elems)
	}
	return metamodel.Of(declared, raw)
}

// sliceElements unpacks a slice of any element type.
func sliceElements(raw any) ([]any, bool) {
	if list, ok := raw.([]any); ok {
		return list, true
	}
	v := reflect.ValueOf(raw)
	if v.Kind() != reflect.Slice {
		return nil, false
	}
	list := make([]any, v.Len())
	for i := range list {
		list[i] = v.Index(i).Interface()
	}
	return list, true
}

func (e *Env) adaptAll(declared *metamodel.ObjectSpec, raws []any) []metamodel.ManagedObject {
	out := make([]metamodel.ManagedObject, 0, len(raws))
	for _, r := range raws {
		out = append(out, e.adapt(declared, r))
	}
	return out
}
