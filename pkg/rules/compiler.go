package rules

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/aretw0/parley/pkg/metamodel"
)

// ErrNotBool is returned when a condition does not evaluate to a boolean.
var ErrNotBool = errors.New("expression did not evaluate to a boolean")

// Projector turns a managed value into something CEL can navigate.
type Projector func(metamodel.ManagedObject) any

// Fielded is implemented by pojos that expose their state as a field map.
type Fielded interface {
	Fields() map[string]any
}

// Compiler compiles and caches CEL programs.
type Compiler struct {
	env       *cel.Env
	prgCache  map[string]cel.Program
	mu        sync.RWMutex
	costLimit uint64
	project   Projector
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCostLimit bounds the evaluation cost of every program.
func WithCostLimit(limit uint64) Option {
	return func(c *Compiler) {
		c.costLimit = limit
	}
}

// WithProjector replaces the default projection of owners and values.
func WithProjector(p Projector) Option {
	return func(c *Compiler) {
		c.project = p
	}
}

// NewCompiler creates a compiler with the standard rule variables.
func NewCompiler(opts ...Option) (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("self", cel.DynType),
		cel.Variable("args", cel.ListType(cel.DynType)),
		cel.Variable("value", cel.DynType),
		cel.Variable("search", cel.StringType),
		cel.Variable("where", cel.StringType),
		cel.Variable("target", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	c := &Compiler{
		env:       env,
		prgCache:  make(map[string]cel.Program),
		costLimit: 10000,
		project:   Project,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Check compiles expr without evaluating it.
func (c *Compiler) Check(expr string) error {
	_, err := c.program(expr)
	return err
}

func (c *Compiler) program(expr string) (cel.Program, error) {
	c.mu.RLock()
	prg, hit := c.prgCache[expr]
	c.mu.RUnlock()
	if hit {
		return prg, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prg, hit = c.prgCache[expr]; hit {
		return prg, nil
	}

	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := c.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(c.costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	c.prgCache[expr] = prg
	return prg, nil
}

// Vars are the inputs of one evaluation. Unset fields evaluate as null, or
// as the empty string and list.
type Vars struct {
	Self   metamodel.ManagedObject
	Args   metamodel.Arguments
	Value  metamodel.ManagedObject
	Search string
	Where  string
	Target metamodel.ManagedObject
}

func (c *Compiler) activation(v Vars) map[string]any {
	args := make([]any, 0)
	if v.Args != nil {
		for i := range v.Args.Len() {
			args = append(args, c.project(v.Args.Value(i)))
		}
	}
	return map[string]any{
		"self":   c.project(v.Self),
		"args":   args,
		"value":  c.project(v.Value),
		"search": v.Search,
		"where":  v.Where,
		"target": c.project(v.Target),
	}
}

// Eval evaluates expr and returns its result as a native Go value: integers
// come back as int, lists as []any and maps as map[string]any.
func (c *Compiler) Eval(ctx context.Context, expr string, v Vars) (any, error) {
	prg, err := c.program(expr)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	out, _, err := prg.ContextEval(ctx, c.activation(v))
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expr, err)
	}
	return native(out)
}

// EvalBool evaluates a condition.
func (c *Compiler) EvalBool(ctx context.Context, expr string, v Vars) (bool, error) {
	out, err := c.Eval(ctx, expr, v)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%q: %w", expr, ErrNotBool)
	}
	return b, nil
}

// Project is the default Projector. Empty values become null, plural values
// lists, Fielded pojos maps; anything else is handed to CEL as is.
func Project(m metamodel.ManagedObject) any {
	if m.IsPacked() {
		out := make([]any, 0, len(m.Elements()))
		for _, e := range m.Elements() {
			out = append(out, Project(e))
		}
		return out
	}
	if m.IsEmpty() {
		return nil
	}
	if f, ok := m.Pojo.(Fielded); ok {
		return f.Fields()
	}
	return m.Pojo
}

var (
	anySlice = reflect.TypeOf([]any{})
	anyMap   = reflect.TypeOf(map[string]any{})
)

func native(val ref.Val) (any, error) {
	if val.Type() == types.NullType {
		return nil, nil
	}
	switch v := val.Value().(type) {
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case bool, string, float64:
		return v, nil
	}

	if list, err := val.ConvertToNative(anySlice); err == nil {
		return normalize(list), nil
	}
	if m, err := val.ConvertToNative(anyMap); err == nil {
		return normalize(m), nil
	}
	return val.Value(), nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case uint64:
		return int(x)
	case ref.Val:
		out, err := native(x)
		if err != nil {
			return x.Value()
		}
		return out
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	}
	return v
}
