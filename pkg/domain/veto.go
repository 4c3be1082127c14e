package domain

import (
	"encoding/json"
	"fmt"
)

// VetoType classifies a veto so that callers can decide whether to hide a
// member, disable it, or show an inline error.
type VetoType int

const (
	VetoNotFound VetoType = iota
	VetoHidden
	VetoReadOnly
	VetoInvalid
	VetoActionNotSafe
	VetoActionNotIdempotent
	VetoActionParamInvalid
)

var vetoTypeNames = [...]string{
	VetoNotFound:            "NOT_FOUND",
	VetoHidden:              "HIDDEN",
	VetoReadOnly:            "READONLY",
	VetoInvalid:             "INVALID",
	VetoActionNotSafe:       "ACTION_NOT_SAFE",
	VetoActionNotIdempotent: "ACTION_NOT_IDEMPOTENT",
	VetoActionParamInvalid:  "ACTION_PARAM_INVALID",
}

func (t VetoType) String() string {
	if t < 0 || int(t) >= len(vetoTypeNames) {
		return fmt.Sprintf("VetoType(%d)", int(t))
	}
	return vetoTypeNames[t]
}

// MarshalJSON encodes the veto type by name.
func (t VetoType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// InteractionVeto is a Consent tagged with the kind of refusal it represents.
type InteractionVeto struct {
	vetoType VetoType
	consent  Consent
}

// NotFound is the veto for a member that does not exist for the owner.
func NotFound(memberType MemberType, memberID string) InteractionVeto {
	return InteractionVeto{
		vetoType: VetoNotFound,
		consent:  Veto(fmt.Sprintf("member '%s' with id '%s' not found", memberType, memberID)),
	}
}

func Hidden(c Consent) InteractionVeto {
	return InteractionVeto{vetoType: VetoHidden, consent: ensureVetoed(c, "hidden")}
}

func ReadOnly(c Consent) InteractionVeto {
	return InteractionVeto{vetoType: VetoReadOnly, consent: ensureVetoed(c, "disabled")}
}

func Invalid(c Consent) InteractionVeto {
	return InteractionVeto{vetoType: VetoInvalid, consent: ensureVetoed(c, "invalid")}
}

func ActionNotSafe(actionID string) InteractionVeto {
	return InteractionVeto{
		vetoType: VetoActionNotSafe,
		consent:  Veto(fmt.Sprintf("action '%s' does not have safe semantics", actionID)),
	}
}

func ActionNotIdempotent(actionID string) InteractionVeto {
	return InteractionVeto{
		vetoType: VetoActionNotIdempotent,
		consent:  Veto(fmt.Sprintf("action '%s' does not have idempotent semantics", actionID)),
	}
}

func ActionParamInvalid(c Consent) InteractionVeto {
	return InteractionVeto{vetoType: VetoActionParamInvalid, consent: ensureVetoed(c, "invalid parameter")}
}

// InvocationException turns a failure raised while invoking a member into an
// INVALID veto carrying the error text.
func InvocationException(err error) InteractionVeto {
	if err == nil {
		return Invalid(Veto("invocation failed"))
	}
	return Invalid(Veto(err.Error()))
}

// ensureVetoed keeps the invariant that a veto never wraps an allowing Consent.
func ensureVetoed(c Consent, fallback string) Consent {
	if c.IsVetoed() {
		return c
	}
	return Veto(fallback)
}

func (v InteractionVeto) Type() VetoType { return v.vetoType }

func (v InteractionVeto) Consent() Consent { return v.consent }

func (v InteractionVeto) Reason() (string, bool) { return v.consent.Reason() }

func (v InteractionVeto) ReasonAsString() string { return v.consent.ReasonAsString() }

func (v InteractionVeto) Description() string { return v.consent.Description() }

func (v InteractionVeto) IsNotFound() bool { return v.vetoType == VetoNotFound }

func (v InteractionVeto) IsHidden() bool { return v.vetoType == VetoHidden }

func (v InteractionVeto) IsReadOnly() bool { return v.vetoType == VetoReadOnly }

func (v InteractionVeto) String() string {
	return fmt.Sprintf("%s: %s", v.vetoType, v.ReasonAsString())
}

// MarshalJSON renders the veto the way viewers expect to receive it.
func (v InteractionVeto) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   VetoType `json:"type"`
		Reason string   `json:"reason"`
	}{v.vetoType, v.ReasonAsString()})
}
