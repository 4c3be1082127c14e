package domain

// notVetoed is what the reason accessors report for a Consent that allows.
const notVetoed = "allowed (not vetoed)"

// Consent is the outcome of a single visibility, usability or validity rule.
// The zero value allows.
type Consent struct {
	vetoed      bool
	reason      string
	description string
}

// Allow returns the canonical allowing Consent.
func Allow() Consent {
	return Consent{}
}

// Veto returns a vetoing Consent. A veto always carries a reason;
// an empty one is replaced with a generic text.
func Veto(reason string) Consent {
	if reason == "" {
		reason = "vetoed"
	}
	return Consent{vetoed: true, reason: reason}
}

// ConsentOf maps a rule error onto a Consent: nil allows, anything else vetoes
// with the error text as reason.
func ConsentOf(err error) Consent {
	if err == nil {
		return Allow()
	}
	return Veto(err.Error())
}

// WithDescription returns a copy of c carrying an additional description.
func (c Consent) WithDescription(description string) Consent {
	c.description = description
	return c
}

func (c Consent) IsAllowed() bool { return !c.vetoed }

func (c Consent) IsVetoed() bool { return c.vetoed }

// Reason returns the veto reason, if any.
func (c Consent) Reason() (string, bool) {
	if !c.vetoed {
		return "", false
	}
	return c.reason, true
}

// ReasonAsString returns the veto reason, or "allowed (not vetoed)".
func (c Consent) ReasonAsString() string {
	if !c.vetoed {
		return notVetoed
	}
	return c.reason
}

// Description returns the explicit description if one was attached,
// otherwise the same text as ReasonAsString.
func (c Consent) Description() string {
	if c.description != "" {
		return c.description
	}
	return c.ReasonAsString()
}
