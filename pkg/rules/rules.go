package rules

import (
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

func vars(rc metamodel.RuleContext) Vars {
	return Vars{Self: rc.Owner, Where: string(rc.Where)}
}

func consent(vetoed bool, reason string) domain.Consent {
	if vetoed {
		return domain.Veto(reason)
	}
	return domain.Allow()
}

// VetoWhen compiles a hidden or disabled rule: the member is vetoed with
// reason whenever expr holds.
func (c *Compiler) VetoWhen(expr, reason string) (metamodel.Rule, error) {
	if err := c.Check(expr); err != nil {
		return nil, err
	}
	return func(rc metamodel.RuleContext) (domain.Consent, error) {
		hit, err := c.EvalBool(rc.Context, expr, vars(rc))
		if err != nil {
			return domain.Consent{}, err
		}
		return consent(hit, reason), nil
	}, nil
}

// PropertyValidator compiles a property validation: the proposed value
// (bound to `value`) is invalid with reason unless expr holds.
func (c *Compiler) PropertyValidator(expr, reason string) (func(metamodel.RuleContext, metamodel.ManagedObject) (domain.Consent, error), error) {
	if err := c.Check(expr); err != nil {
		return nil, err
	}
	return func(rc metamodel.RuleContext, proposed metamodel.ManagedObject) (domain.Consent, error) {
		v := vars(rc)
		v.Value = proposed
		ok, err := c.EvalBool(rc.Context, expr, v)
		if err != nil {
			return domain.Consent{}, err
		}
		return consent(!ok, reason), nil
	}, nil
}

// ParamValidator is PropertyValidator for parameters; earlier arguments are
// visible as `args`.
func (c *Compiler) ParamValidator(expr, reason string) (metamodel.ParamValidator, error) {
	if err := c.Check(expr); err != nil {
		return nil, err
	}
	return func(rc metamodel.RuleContext, args metamodel.Arguments, proposed metamodel.ManagedObject) (domain.Consent, error) {
		v := vars(rc)
		v.Args, v.Value = args, proposed
		ok, err := c.EvalBool(rc.Context, expr, v)
		if err != nil {
			return domain.Consent{}, err
		}
		return consent(!ok, reason), nil
	}, nil
}

// ActionValidator compiles a validation of the whole argument tuple.
func (c *Compiler) ActionValidator(expr, reason string) (metamodel.ActionValidator, error) {
	if err := c.Check(expr); err != nil {
		return nil, err
	}
	return func(rc metamodel.RuleContext, args metamodel.Arguments) (domain.Consent, error) {
		v := vars(rc)
		v.Args = args
		ok, err := c.EvalBool(rc.Context, expr, v)
		if err != nil {
			return domain.Consent{}, err
		}
		return consent(!ok, reason), nil
	}, nil
}

// Default compiles a parameter default. Earlier defaults are visible as `args`.
func (c *Compiler) Default(expr string) (metamodel.ParamDefault, error) {
	if err := c.Check(expr); err != nil {
		return nil, err
	}
	return func(rc metamodel.RuleContext, args metamodel.Arguments) (any, error) {
		v := vars(rc)
		v.Args = args
		return c.Eval(rc.Context, expr, v)
	}, nil
}

// Choices compiles an expression yielding the list of allowed values.
func (c *Compiler) Choices(expr string) (metamodel.ParamChoices, error) {
	if err := c.Check(expr); err != nil {
		return nil, err
	}
	return func(rc metamodel.RuleContext, args metamodel.Arguments) ([]any, error) {
		v := vars(rc)
		v.Args = args
		return c.evalList(rc, expr, v)
	}, nil
}

// AutoComplete compiles an expression yielding candidates for `search`.
func (c *Compiler) AutoComplete(expr string) (metamodel.ParamAutoComplete, error) {
	if err := c.Check(expr); err != nil {
		return nil, err
	}
	return func(rc metamodel.RuleContext, args metamodel.Arguments, search string) ([]any, error) {
		v := vars(rc)
		v.Args, v.Search = args, search
		return c.evalList(rc, expr, v)
	}, nil
}

func (c *Compiler) evalList(rc metamodel.RuleContext, expr string, v Vars) ([]any, error) {
	out, err := c.Eval(rc.Context, expr, v)
	if err != nil {
		return nil, err
	}
	list, ok := out.([]any)
	if !ok {
		return nil, fmt.Errorf("%q: expected a list, got %T", expr, out)
	}
	return list, nil
}
