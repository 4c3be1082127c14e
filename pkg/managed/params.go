package managed

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/bindable"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/railway"
)

// ParameterNegotiationModel is the pending state of an action dialog: one
// bindable value per parameter plus lazily computed choices and validation
// messages.
//
// Every value change invalidates all choices and validation messages of the
// model. Validation messages stay empty until validation feedback has been
// activated, which happens at the latest on the first submission attempt.
//
// The ctx the model was started with is used for everything it computes
// lazily.
type ParameterNegotiationModel struct {
	ctx              context.Context
	action           *Action
	head             ActionInteractionHead
	params           []*ParameterModel
	feedback         bool
	seeding          bool
	actionValidation *bindable.Lazy[string]
}

var _ metamodel.Arguments = (*ParameterNegotiationModel)(nil)

func newParameterNegotiationModel(ctx context.Context, a *Action) *ParameterNegotiationModel {
	m := &ParameterNegotiationModel{
		ctx:    ctx,
		action: a,
		head:   a.Head(),
	}
	m.actionValidation = bindable.NewLazy(m.computeActionValidation)
	m.params = make([]*ParameterModel, len(a.desc.Params))
	for i, d := range a.desc.Params {
		m.params[i] = newParameterModel(m, i, d)
	}
	return m
}

// RestoreParameterNegotiation rebuilds a dialog from previously pending
// values. Defaults are not recomputed and no parameter is dirty.
func (a *Action) RestoreParameterNegotiation(ctx context.Context, values []metamodel.ManagedObject) (*ParameterNegotiationModel, error) {
	if len(values) != a.desc.ParamCount() {
		return nil, fmt.Errorf("action %s expects %d parameters, got %d", a.id, a.desc.ParamCount(), len(values))
	}
	m := newParameterNegotiationModel(ctx, a)
	m.seeding = true
	defer func() { m.seeding = false }()
	for i, v := range values {
		m.params[i].value.Set(v)
	}
	return m, nil
}

// seedDefaults computes every default once, left to right. Each default sees
// the parameters seeded before it.
func (m *ParameterNegotiationModel) seedDefaults() {
	m.seeding = true
	defer func() { m.seeding = false }()
	for _, p := range m.params {
		p.value.Set(p.emptyValue())
		p.dirty = false
	}
	for _, p := range m.params {
		p.value.Set(p.computeDefault())
	}
}

// Defaults resets all parameters to their defaults.
func (m *ParameterNegotiationModel) Defaults() {
	m.seedDefaults()
}

func (m *ParameterNegotiationModel) Action() *Action { return m.action }

func (m *ParameterNegotiationModel) Head() ActionInteractionHead { return m.head }

func (m *ParameterNegotiationModel) ParamCount() int { return len(m.params) }

// Len and Value let rules read the pending values positionally.
func (m *ParameterNegotiationModel) Len() int { return len(m.params) }

func (m *ParameterNegotiationModel) Value(i int) metamodel.ManagedObject {
	if i < 0 || i >= len(m.params) {
		return metamodel.ManagedObject{}
	}
	return m.params[i].value.Value()
}

func (m *ParameterNegotiationModel) ParamModels() []*ParameterModel {
	return append([]*ParameterModel(nil), m.params...)
}

// ParamModel returns the model of parameter i, or nil.
func (m *ParameterNegotiationModel) ParamModel(i int) *ParameterModel {
	if i < 0 || i >= len(m.params) {
		return nil
	}
	return m.params[i]
}

// ParamValues snapshots the pending values in parameter order.
func (m *ParameterNegotiationModel) ParamValues() []metamodel.ManagedObject {
	out := make([]metamodel.ManagedObject, len(m.params))
	for i, p := range m.params {
		out[i] = p.value.Value()
	}
	return out
}

// SetParamValue is ParamModel(i).SetValue(v).
func (m *ParameterNegotiationModel) SetParamValue(i int, v metamodel.ManagedObject) error {
	p := m.ParamModel(i)
	if p == nil {
		return fmt.Errorf("action %s has no parameter %d", m.action.id, i)
	}
	p.SetValue(v)
	return nil
}

func (m *ParameterNegotiationModel) IsValidationFeedbackActive() bool { return m.feedback }

// ActivateValidationFeedback makes validation observables report. It cannot
// be turned off again.
func (m *ParameterNegotiationModel) ActivateValidationFeedback() {
	if m.feedback {
		return
	}
	m.feedback = true
	m.actionValidation.Invalidate()
	for _, p := range m.params {
		p.validation.Invalidate()
	}
}

// ObservableActionValidation holds the action-level validation message, ""
// when valid or while feedback is inactive.
func (m *ParameterNegotiationModel) ObservableActionValidation() *bindable.Lazy[string] {
	return m.actionValidation
}

func (m *ParameterNegotiationModel) ActionValidationMessage() string {
	return m.actionValidation.Value()
}

func (m *ParameterNegotiationModel) computeActionValidation() string {
	if !m.feedback {
		return ""
	}
	if v := m.action.validateAction(m.ctx, m); v != nil {
		return v.ReasonAsString()
	}
	return ""
}

func (m *ParameterNegotiationModel) invalidateAll() {
	m.actionValidation.Invalidate()
	for _, p := range m.params {
		p.choices.Invalidate()
		p.validation.Invalidate()
	}
}

// ValidateParameterSetForParameters validates each pending value in order.
func (m *ParameterNegotiationModel) ValidateParameterSetForParameters(ctx context.Context) *domain.InteractionVeto {
	for i, p := range m.params {
		if v := m.action.validateParam(ctx, m, i, p.value.Value()); v != nil {
			return v
		}
	}
	return nil
}

// ValidateParameterSetForAction validates the pending values as a tuple.
func (m *ParameterNegotiationModel) ValidateParameterSetForAction(ctx context.Context) *domain.InteractionVeto {
	return m.action.validateAction(ctx, m)
}

// ValidateParameterSet runs the parameter checks and then the action check.
func (m *ParameterNegotiationModel) ValidateParameterSet(ctx context.Context) *domain.InteractionVeto {
	if v := m.ValidateParameterSetForParameters(ctx); v != nil {
		return v
	}
	return m.ValidateParameterSetForAction(ctx)
}

// Invoke activates validation feedback and, if the pending values are valid,
// invokes the action with them.
func (m *ParameterNegotiationModel) Invoke(ctx context.Context) (railway.Railway[metamodel.ManagedObject], error) {
	m.ActivateValidationFeedback()
	if v := m.ValidateParameterSet(ctx); v != nil {
		m.action.report(ctx, v)
		return railway.Failure[metamodel.ManagedObject](*v), nil
	}
	return m.action.Invoke(ctx, m.ParamValues(), domain.InitiatedByUser)
}

// Submit is Invoke.
func (m *ParameterNegotiationModel) Submit(ctx context.Context) (railway.Railway[metamodel.ManagedObject], error) {
	return m.Invoke(ctx)
}
