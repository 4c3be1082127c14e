package managed

import (
	"context"
	"strings"

	"github.com/aretw0/parley/pkg/bindable"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

// PropertyNegotiationModel is the pending state of a property edit dialog.
type PropertyNegotiationModel struct {
	ctx        context.Context
	prop       *Property
	value      *bindable.Bindable[metamodel.ManagedObject]
	search     *bindable.Bindable[string]
	dirty      bool
	feedback   bool
	choices    *bindable.Lazy[[]metamodel.ManagedObject]
	validation *bindable.Lazy[string]
}

func newPropertyNegotiationModel(ctx context.Context, p *Property) *PropertyNegotiationModel {
	m := &PropertyNegotiationModel{
		ctx:    ctx,
		prop:   p,
		value:  bindable.New(p.PropertyValue()),
		search: bindable.New(""),
	}
	m.choices = bindable.NewLazy(func() []metamodel.ManagedObject {
		return p.choices(m.ctx, m.search.Value())
	})
	m.validation = bindable.NewLazy(m.computeValidation)
	m.value.AddListener(func(_, _ metamodel.ManagedObject) {
		m.dirty = true
		m.validation.Invalidate()
	})
	m.search.AddListener(func(_, _ string) {
		m.choices.Invalidate()
	})
	return m
}

func (m *PropertyNegotiationModel) Property() *Property { return m.prop }

func (m *PropertyNegotiationModel) Value() metamodel.ManagedObject { return m.value.Value() }

func (m *PropertyNegotiationModel) SetValue(v metamodel.ManagedObject) { m.value.Set(v) }

func (m *PropertyNegotiationModel) Clear() { m.value.Set(metamodel.Empty(m.prop.ElementSpec())) }

func (m *PropertyNegotiationModel) IsDirty() bool { return m.dirty }

func (m *PropertyNegotiationModel) BindableValue() *bindable.Bindable[metamodel.ManagedObject] {
	return m.value
}

func (m *PropertyNegotiationModel) SearchArgument() string { return m.search.Value() }

func (m *PropertyNegotiationModel) SetSearchArgument(s string) { m.search.Set(s) }

func (m *PropertyNegotiationModel) Choices() []metamodel.ManagedObject { return m.choices.Value() }

func (m *PropertyNegotiationModel) IsValidationFeedbackActive() bool { return m.feedback }

// ActivateValidationFeedback makes the validation message report.
func (m *PropertyNegotiationModel) ActivateValidationFeedback() {
	if m.feedback {
		return
	}
	m.feedback = true
	m.validation.Invalidate()
}

// ValidationMessage is "" when the proposed value is valid or feedback is
// inactive.
func (m *PropertyNegotiationModel) ValidationMessage() string { return m.validation.Value() }

func (m *PropertyNegotiationModel) ObservableValidation() *bindable.Lazy[string] { return m.validation }

func (m *PropertyNegotiationModel) computeValidation() string {
	if !m.feedback {
		return ""
	}
	if v := m.prop.CheckValidity(m.ctx, m.value.Value()); v != nil {
		return v.ReasonAsString()
	}
	return ""
}

func (m *PropertyNegotiationModel) ParsableText() (string, error) {
	return m.prop.env.formatter().ParsableText(m.value.Value())
}

// SetParsableText parses text into the proposed value. On a parse error the
// proposed value is left unchanged.
func (m *PropertyNegotiationModel) SetParsableText(text string) error {
	v, err := m.prop.env.formatter().Parse(m.prop.ElementSpec(), strings.TrimSpace(text))
	if err != nil {
		return err
	}
	m.value.Set(v)
	return nil
}

// Submit activates validation feedback and applies the proposed value.
func (m *PropertyNegotiationModel) Submit(ctx context.Context) *domain.InteractionVeto {
	m.ActivateValidationFeedback()
	if v := m.prop.ModifyProperty(ctx, m.value.Value()); v != nil {
		return v
	}
	m.dirty = false
	return nil
}
