package managed

import (
	"strings"

	"github.com/aretw0/parley/pkg/bindable"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// ParameterModel is the pending state of one parameter.
type ParameterModel struct {
	model      *ParameterNegotiationModel
	index      int
	desc       *metamodel.ParameterDescriptor
	spec       *metamodel.ObjectSpec
	value      *bindable.Bindable[metamodel.ManagedObject]
	search     *bindable.Bindable[string]
	dirty      bool
	choices    *bindable.Lazy[[]metamodel.ManagedObject]
	validation *bindable.Lazy[string]
}

func newParameterModel(m *ParameterNegotiationModel, index int, desc *metamodel.ParameterDescriptor) *ParameterModel {
	p := &ParameterModel{
		model: m,
		index: index,
		desc:  desc,
		spec:  m.action.env.spec(desc.TypeName),
	}
	p.value = bindable.New(p.emptyValue())
	p.search = bindable.New("")
	p.choices = bindable.NewLazy(p.computeChoices)
	p.validation = bindable.NewLazy(p.computeValidation)

	p.value.AddListener(func(_, _ metamodel.ManagedObject) {
		if !m.seeding {
			p.dirty = true
		}
		m.invalidateAll()
	})
	p.search.AddListener(func(_, _ string) {
		p.choices.Invalidate()
	})
	return p
}

func (p *ParameterModel) Index() int { return p.index }

func (p *ParameterModel) Descriptor() *metamodel.ParameterDescriptor { return p.desc }

func (p *ParameterModel) ElementSpec() *metamodel.ObjectSpec { return p.spec }

func (p *ParameterModel) Value() metamodel.ManagedObject { return p.value.Value() }

// SetValue proposes v and marks the parameter dirty.
func (p *ParameterModel) SetValue(v metamodel.ManagedObject) {
	p.value.Set(v)
}

// Clear proposes the empty value.
func (p *ParameterModel) Clear() {
	p.value.Set(p.emptyValue())
}

// IsDirty reports whether the value was changed since the defaults were
// applied.
func (p *ParameterModel) IsDirty() bool { return p.dirty }

// BindableValue exposes the value cell for listeners.
func (p *ParameterModel) BindableValue() *bindable.Bindable[metamodel.ManagedObject] { return p.value }

func (p *ParameterModel) SearchArgument() string { return p.search.Value() }

// SetSearchArgument changes the autocomplete search text.
func (p *ParameterModel) SetSearchArgument(s string) { p.search.Set(s) }

// Choices lists the allowed values: autocomplete matches, bounded choices, or
// nothing.
func (p *ParameterModel) Choices() []metamodel.ManagedObject { return p.choices.Value() }

func (p *ParameterModel) ObservableChoices() *bindable.Lazy[[]metamodel.ManagedObject] {
	return p.choices
}

// ValidationMessage is "" when the value is valid or feedback is inactive.
func (p *ParameterModel) ValidationMessage() string { return p.validation.Value() }

func (p *ParameterModel) ObservableValidation() *bindable.Lazy[string] { return p.validation }

func (p *ParameterModel) Title() string {
	return p.model.action.env.formatter().Title(p.value.Value())
}

// ParsableText renders the value so that SetParsableText reads it back.
func (p *ParameterModel) ParsableText() (string, error) {
	return p.model.action.env.formatter().ParsableText(p.value.Value())
}

// SetParsableText parses text into a value of the parameter type. Plural
// parameters take comma separated elements. On a parse error the value is
// left unchanged.
func (p *ParameterModel) SetParsableText(text string) error {
	f := p.model.action.env.formatter()
	if !p.desc.Plural {
		v, err := f.Parse(p.spec, strings.TrimSpace(text))
		if err != nil {
			return err
		}
		p.value.Set(v)
		return nil
	}
	var elems []metamodel.ManagedObject
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := f.Parse(p.spec, part)
		if err != nil {
			return err
		}
		elems = append(elems, v)
	}
	p.value.Set(metamodel.Packed(p.spec, elems))
	return nil
}

func (p *ParameterModel) emptyValue() metamodel.ManagedObject {
	if p.desc.Plural {
		return metamodel.Packed(p.spec, nil)
	}
	return metamodel.Empty(p.spec)
}

func (p *ParameterModel) computeDefault() metamodel.ManagedObject {
	if p.desc.Default == nil {
		return p.emptyValue()
	}
	a := p.model.action
	raw, err := guard(func() (any, error) {
		return p.desc.Default(a.ruleContext(p.model.ctx, domain.InitiatedByUser), p.model)
	})
	if err != nil {
		a.env.log().WarnContext(p.model.ctx, "parameter default failed", "action", a.id, "param", p.desc.ID, "err", err)
		return p.emptyValue()
	}
	v := a.env.adapt(p.spec, raw)
	if p.desc.Plural && !v.IsPacked() {
		return metamodel.Packed(p.spec, v.Elements())
	}
	return v
}

func (p *ParameterModel) computeChoices() []metamodel.ManagedObject {
	a := p.model.action
	rc := a.ruleContext(p.model.ctx, domain.InitiatedByUser)
	var raw []any
	var err error
	switch {
	case p.desc.HasAutoComplete():
		search := p.search.Value()
		if len([]rune(search)) < p.desc.MinSearchLength {
			return nil
		}
		raw, err = guard(func() ([]any, error) { return p.desc.AutoComplete(rc, p.model, search) })
	case p.desc.HasChoices():
		raw, err = guard(func() ([]any, error) { return p.desc.Choices(rc, p.model) })
	default:
		return nil
	}
	if err != nil {
		a.env.log().WarnContext(p.model.ctx, "parameter choices failed", "action", a.id, "param", p.desc.ID, "err", err)
		return nil
	}
	return a.env.adaptAll(p.spec, raw)
}

func (p *ParameterModel) computeValidation() string {
	if !p.model.feedback {
		return ""
	}
	if v := p.model.action.validateParam(p.model.ctx, p.model, p.index, p.value.Value()); v != nil {
		return v.ReasonAsString()
	}
	return ""
}
