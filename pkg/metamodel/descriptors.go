package metamodel

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// RuleContext is what every rule is evaluated against.
type RuleContext struct {
	Context     context.Context
	Owner       ManagedObject
	Where       domain.Where
	InitiatedBy domain.InitiatedBy
}

// Arguments is a positional view over (possibly pending) action arguments.
// Defaults, choices and validators read earlier parameters through it.
type Arguments interface {
	Len() int
	Value(i int) ManagedObject
}

// ArgList is the plain slice implementation of Arguments.
type ArgList []ManagedObject

func (a ArgList) Len() int { return len(a) }

// Value returns the i-th argument, or an untyped empty value when out of range.
func (a ArgList) Value(i int) ManagedObject {
	if i < 0 || i >= len(a) {
		return ManagedObject{}
	}
	return a[i]
}

// Rule decides visibility or usability of a member. Rule code belongs to the
// domain and may fail or panic; callers degrade both to a veto.
type Rule func(RuleContext) (domain.Consent, error)

// ActionValidator validates the full argument tuple.
type ActionValidator func(RuleContext, Arguments) (domain.Consent, error)

// ParamValidator validates a single proposed parameter value.
type ParamValidator func(rc RuleContext, args Arguments, proposed ManagedObject) (domain.Consent, error)

// ParamDefault computes a default from the parameters defaulted so far.
type ParamDefault func(RuleContext, Arguments) (any, error)

// ParamChoices lists the allowed values of a parameter.
type ParamChoices func(RuleContext, Arguments) ([]any, error)

// ParamAutoComplete lists candidate values matching a search string.
type ParamAutoComplete func(rc RuleContext, args Arguments, search string) ([]any, error)

// InvocationContext is handed to an action's behaviour.
type InvocationContext struct {
	Context     context.Context
	Owner       ManagedObject
	Target      ManagedObject
	Args        []ManagedObject
	Multiselect []ManagedObject
	InitiatedBy domain.InitiatedBy
}

// Invoker runs the behaviour of an action and returns its raw result.
type Invoker func(InvocationContext) (any, error)

// ActionDescriptor is the reflected form of an action.
type ActionDescriptor struct {
	ID         string
	Name       string
	Semantics  domain.ActionSemantics
	ReturnType string
	Params     []*ParameterDescriptor

	Hidden   Rule
	Disabled Rule
	Validate ActionValidator
	Invoke   Invoker
}

// ParameterDescriptor is the reflected form of an action parameter.
// At most one of Choices and AutoComplete may be set.
type ParameterDescriptor struct {
	Index    int
	ID       string
	Name     string
	TypeName string
	Plural   bool
	Optional bool

	Default         ParamDefault
	Choices         ParamChoices
	AutoComplete    ParamAutoComplete
	MinSearchLength int
	Validate        ParamValidator
}

// HasAutoComplete and HasChoices are mutually exclusive by registration.
func (p *ParameterDescriptor) HasAutoComplete() bool { return p.AutoComplete != nil }

func (p *ParameterDescriptor) HasChoices() bool { return p.AutoComplete == nil && p.Choices != nil }

// PropertyDescriptor is the reflected form of a property.
type PropertyDescriptor struct {
	ID       string
	Name     string
	TypeName string
	Optional bool

	Hidden   Rule
	Disabled Rule
	Validate func(rc RuleContext, proposed ManagedObject) (domain.Consent, error)

	// Get reads the value from the owner pojo.
	Get func(owner any) (any, error)
	// Set applies the value and returns the owner to continue with. Mutable
	// entities return themselves; immutable view models return a new instance.
	Set func(owner any, value any) (any, error)

	Choices      func(RuleContext) ([]any, error)
	AutoComplete func(rc RuleContext, search string) ([]any, error)
}

// CollectionDescriptor is the reflected form of a collection.
type CollectionDescriptor struct {
	ID          string
	Name        string
	ElementType string

	Hidden   Rule
	Disabled Rule
	Get      func(owner any) ([]any, error)
}

func (a *ActionDescriptor) ParamCount() int { return len(a.Params) }
