package yamlspec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/binding"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/rules"
)

// Loader builds a metamodel from model files.
type Loader struct {
	types  *binding.Types
	rules  *rules.Compiler
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithTypes sets the value types model files may refer to.
func WithTypes(types *binding.Types) Option {
	return func(l *Loader) {
		l.types = types
	}
}

// WithCompiler sets the CEL compiler used for rules and effects.
func WithCompiler(c *rules.Compiler) Option {
	return func(l *Loader) {
		l.rules = c
	}
}

// WithLogger configures a logger for the Loader.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.For(logger, "yamlspec")
	}
}

// NewLoader creates a loader with the built-in value types and a default
// compiler unless options say otherwise.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	if l.types == nil {
		l.types = binding.NewTypes()
	}
	if l.rules == nil {
		c, err := rules.NewCompiler()
		if err != nil {
			return nil, err
		}
		l.rules = c
	}
	return l, nil
}

// Model is a loaded model: its registry and the objects it knows.
type Model struct {
	Registry *metamodel.Registry
	Types    *binding.Types

	// Seeds are the objects declared in the file, in file order.
	Seeds []*Object

	records map[string]TypeRecord
	mu      sync.RWMutex
	objects map[string]*Object
}

// New creates an object of typeName initialised with the type's field
// defaults and then with fields.
func (m *Model) New(typeName, id string, fields map[string]any) (*Object, error) {
	tr, ok := m.records[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownType, typeName)
	}
	initial := maps.Clone(tr.Fields)
	if initial == nil {
		initial = make(map[string]any)
	}
	maps.Copy(initial, fields)
	for _, c := range tr.Collections {
		if _, set := initial[c.ID]; !set {
			initial[c.ID] = []any{}
		}
	}
	o := NewObject(typeName, id, initial)
	m.track(o)
	return o, nil
}

func (m *Model) track(o *Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[o.Identifier()] = o
}

// Object returns a known object by identifier.
func (m *Model) Object(id string) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[id]
	return o, ok
}

// reify turns projected objects back into the objects they came from.
func (m *Model) reify(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if id, ok := x["id"].(string); ok {
			if o, known := m.Object(id); known {
				return o
			}
		}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = m.reify(e)
		}
		return out
	}
	return v
}

func (m *Model) reifyList(list []any, err error) ([]any, error) {
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = m.reify(list[i])
	}
	return list, nil
}

// LoadFile loads the model file at path.
func (l *Loader) LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	return l.Load(data)
}

// Load builds a model from YAML. Every type, rule and effect is checked
// before anything is returned.
func (l *Loader) Load(data []byte) (*Model, error) {
	file, err := Decode(data)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Registry: metamodel.NewRegistry(),
		Types:    l.types,
		records:  make(map[string]TypeRecord, len(file.Types)),
		objects:  make(map[string]*Object),
	}
	if err := l.types.RegisterSpecs(m.Registry); err != nil {
		return nil, err
	}

	for _, tr := range file.Types {
		if tr.Name == "" {
			return nil, errors.New("type without name")
		}
		m.records[tr.Name] = tr
	}

	var errs []error
	for _, tr := range file.Types {
		spec, err := l.buildType(m, tr)
		if err != nil {
			errs = append(errs, fmt.Errorf("type %s: %w", tr.Name, err))
			continue
		}
		if err := m.Registry.Register(spec); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := m.Registry.Validate(); err != nil {
		return nil, err
	}

	for _, rec := range file.Objects {
		o, err := m.New(rec.Type, rec.ID, rec.Fields)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", rec.ID, err)
		}
		m.Seeds = append(m.Seeds, o)
	}
	l.logger.Debug("model loaded", "types", len(file.Types), "objects", len(m.Seeds))
	return m, nil
}

func (l *Loader) buildType(m *Model, tr TypeRecord) (*metamodel.ObjectSpec, error) {
	spec := &metamodel.ObjectSpec{LogicalTypeName: tr.Name}
	switch tr.Kind {
	case "", "entity":
		spec.Kind = metamodel.KindEntity
	case "view_model":
		spec.Kind = metamodel.KindViewModel
	default:
		return nil, fmt.Errorf("unsupported kind %q", tr.Kind)
	}

	title, err := l.titleFunc(tr)
	if err != nil {
		return nil, err
	}
	spec.TitleFunc = title

	var errs []error
	for _, pr := range tr.Properties {
		p, err := l.buildProperty(m, spec.Kind, pr)
		if err != nil {
			errs = append(errs, fmt.Errorf("property %s: %w", pr.ID, err))
			continue
		}
		spec.Properties = append(spec.Properties, p)
	}
	for _, cr := range tr.Collections {
		c, err := l.buildCollection(cr)
		if err != nil {
			errs = append(errs, fmt.Errorf("collection %s: %w", cr.ID, err))
			continue
		}
		spec.Collections = append(spec.Collections, c)
	}
	for _, ar := range tr.Actions {
		a, err := l.buildAction(m, tr, ar)
		if err != nil {
			errs = append(errs, fmt.Errorf("action %s: %w", ar.ID, err))
			continue
		}
		spec.Actions = append(spec.Actions, a)
	}
	return spec, errors.Join(errs...)
}

func (l *Loader) titleFunc(tr TypeRecord) (func(any) string, error) {
	fallback := func(pojo any) string {
		o := pojo.(*Object)
		if name, ok := o.Get("name").(string); ok && name != "" {
			return name
		}
		return tr.Name + " " + o.Identifier()
	}
	if tr.Title == "" {
		return fallback, nil
	}
	if err := l.rules.Check(tr.Title); err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	return func(pojo any) string {
		out, err := l.rules.Eval(context.Background(), tr.Title, rules.Vars{
			Self: metamodel.Of(nil, pojo),
		})
		if err != nil {
			l.logger.Warn("title evaluation failed", "type", tr.Name, "err", err)
			return fallback(pojo)
		}
		return fmt.Sprint(out)
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (l *Loader) vetoWhen(c Condition, reason string) (metamodel.Rule, error) {
	if !c.IsSet() {
		return nil, nil
	}
	return l.rules.VetoWhen(c.Expr, orDefault(c.Reason, reason))
}

func (l *Loader) buildProperty(m *Model, kind metamodel.Kind, pr PropertyRecord) (*metamodel.PropertyDescriptor, error) {
	id := pr.ID
	p := &metamodel.PropertyDescriptor{
		ID:       id,
		Name:     orDefault(pr.Name, id),
		TypeName: pr.Type,
		Optional: pr.Optional,
		Get: func(owner any) (any, error) {
			return owner.(*Object).Get(id), nil
		},
	}
	if !pr.ReadOnly {
		p.Set = func(owner any, value any) (any, error) {
			o := owner.(*Object)
			if kind == metamodel.KindViewModel {
				return o.With(id, value), nil
			}
			o.Set(id, value)
			return o, nil
		}
	}

	var err error
	if p.Hidden, err = l.vetoWhen(pr.Hidden, "hidden"); err != nil {
		return nil, err
	}
	if p.Disabled, err = l.vetoWhen(pr.Disabled, "disabled"); err != nil {
		return nil, err
	}
	if pr.Valid.IsSet() {
		if p.Validate, err = l.rules.PropertyValidator(pr.Valid.Expr, orDefault(pr.Valid.Reason, "invalid")); err != nil {
			return nil, err
		}
	}
	if pr.Choices != "" && pr.AutoComplete != "" {
		return nil, errors.New("choices and autocomplete are exclusive")
	}
	if pr.Choices != "" {
		choices, err := l.rules.Choices(pr.Choices)
		if err != nil {
			return nil, err
		}
		p.Choices = func(rc metamodel.RuleContext) ([]any, error) {
			return m.reifyList(choices(rc, metamodel.ArgList{}))
		}
	}
	if pr.AutoComplete != "" {
		auto, err := l.rules.AutoComplete(pr.AutoComplete)
		if err != nil {
			return nil, err
		}
		p.AutoComplete = func(rc metamodel.RuleContext, search string) ([]any, error) {
			return m.reifyList(auto(rc, metamodel.ArgList{}, search))
		}
	}
	return p, nil
}

func (l *Loader) buildCollection(cr CollectionRecord) (*metamodel.CollectionDescriptor, error) {
	id := cr.ID
	c := &metamodel.CollectionDescriptor{
		ID:          id,
		Name:        orDefault(cr.Name, id),
		ElementType: cr.Type,
		Get: func(owner any) ([]any, error) {
			return owner.(*Object).List(id), nil
		},
	}
	var err error
	c.Hidden, err = l.vetoWhen(cr.Hidden, "hidden")
	return c, err
}

func (l *Loader) buildParam(m *Model, pr ParamRecord) (*metamodel.ParameterDescriptor, error) {
	p := &metamodel.ParameterDescriptor{
		ID:              pr.ID,
		Name:            orDefault(pr.Name, pr.ID),
		TypeName:        pr.Type,
		Plural:          pr.Plural,
		Optional:        pr.Optional,
		MinSearchLength: pr.MinSearchLength,
	}
	if pr.Default != "" {
		def, err := l.rules.Default(pr.Default)
		if err != nil {
			return nil, err
		}
		p.Default = func(rc metamodel.RuleContext, args metamodel.Arguments) (any, error) {
			v, err := def(rc, args)
			return m.reify(v), err
		}
	}
	if pr.Choices != "" {
		choices, err := l.rules.Choices(pr.Choices)
		if err != nil {
			return nil, err
		}
		p.Choices = func(rc metamodel.RuleContext, args metamodel.Arguments) ([]any, error) {
			return m.reifyList(choices(rc, args))
		}
	}
	if pr.AutoComplete != "" {
		auto, err := l.rules.AutoComplete(pr.AutoComplete)
		if err != nil {
			return nil, err
		}
		p.AutoComplete = func(rc metamodel.RuleContext, args metamodel.Arguments, search string) ([]any, error) {
			return m.reifyList(auto(rc, args, search))
		}
	}
	var err error
	if pr.Valid.IsSet() {
		if p.Validate, err = l.rules.ParamValidator(pr.Valid.Expr, orDefault(pr.Valid.Reason, "invalid")); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (l *Loader) buildAction(m *Model, tr TypeRecord, ar ActionRecord) (*metamodel.ActionDescriptor, error) {
	semantics, err := domain.ParseActionSemantics(ar.Semantics)
	if err != nil {
		return nil, err
	}
	a := &metamodel.ActionDescriptor{
		ID:         ar.ID,
		Name:       orDefault(ar.Name, ar.ID),
		Semantics:  semantics,
		ReturnType: ar.Returns,
	}
	for _, pr := range ar.Params {
		p, err := l.buildParam(m, pr)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", pr.ID, err)
		}
		a.Params = append(a.Params, p)
	}
	if a.Hidden, err = l.vetoWhen(ar.Hidden, "hidden"); err != nil {
		return nil, err
	}
	if a.Disabled, err = l.vetoWhen(ar.Disabled, "disabled"); err != nil {
		return nil, err
	}
	if ar.Valid.IsSet() {
		if a.Validate, err = l.rules.ActionValidator(ar.Valid.Expr, orDefault(ar.Valid.Reason, "invalid")); err != nil {
			return nil, err
		}
	}
	if a.Invoke, err = l.invoker(m, tr, ar); err != nil {
		return nil, err
	}
	return a, nil
}

// invoker builds the behaviour of a declared action. All effects are
// evaluated against the state before the action, then applied.
func (l *Loader) invoker(m *Model, tr TypeRecord, ar ActionRecord) (metamodel.Invoker, error) {
	exprs := slices.Collect(maps.Values(ar.Effects))
	if ar.Create != nil {
		if ar.Create.Type == "" {
			return nil, errors.New("create without type")
		}
		exprs = append(exprs, slices.Collect(maps.Values(ar.Create.Fields))...)
	}
	if ar.Result != "" {
		exprs = append(exprs, ar.Result)
	}
	for _, e := range exprs {
		if err := l.rules.Check(e); err != nil {
			return nil, err
		}
	}
	effectFields := slices.Sorted(maps.Keys(ar.Effects))

	return func(ic metamodel.InvocationContext) (any, error) {
		owner, ok := ic.Owner.Pojo.(*Object)
		if !ok {
			return nil, fmt.Errorf("%s: owner is %T, not a model object", ar.ID, ic.Owner.Pojo)
		}
		vars := rules.Vars{
			Self:   ic.Owner,
			Args:   metamodel.ArgList(ic.Args),
			Target: ic.Target,
		}
		eval := func(expr string) (any, error) {
			v, err := l.rules.Eval(ic.Context, expr, vars)
			if err != nil {
				return nil, err
			}
			return m.reify(v), nil
		}

		updates := make(map[string]any, len(effectFields))
		for _, f := range effectFields {
			v, err := eval(ar.Effects[f])
			if err != nil {
				return nil, fmt.Errorf("effect %s: %w", f, err)
			}
			updates[f] = v
		}

		var created *Object
		if cr := ar.Create; cr != nil {
			fields := make(map[string]any, len(cr.Fields))
			for f, expr := range cr.Fields {
				v, err := eval(expr)
				if err != nil {
					return nil, fmt.Errorf("create %s.%s: %w", cr.Type, f, err)
				}
				fields[f] = v
			}
			var err error
			if created, err = m.New(cr.Type, "", fields); err != nil {
				return nil, err
			}
		}

		var result any
		if ar.Result != "" {
			v, err := eval(ar.Result)
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			result = v
		}

		for _, f := range effectFields {
			owner.Set(f, updates[f])
		}
		if created != nil && ar.Create.AppendTo != "" {
			owner.Append(ar.Create.AppendTo, created)
		}

		switch {
		case ar.Result != "":
			return result, nil
		case created != nil:
			return created, nil
		case ar.Returns == tr.Name:
			return owner, nil
		}
		return nil, nil
	}, nil
}
