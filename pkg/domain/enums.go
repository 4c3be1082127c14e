package domain

import (
	"fmt"
	"strings"
)

// MemberType is the kind of a managed member.
type MemberType string

const (
	MemberAction     MemberType = "action"
	MemberProperty   MemberType = "property"
	MemberCollection MemberType = "collection"
)

// Where is the UI placement an interaction happens in. Visibility rules may
// depend on it.
type Where string

const (
	WhereAnywhere         Where = "anywhere"
	WhereObjectForms      Where = "object_forms"
	WhereParentedTables   Where = "parented_tables"
	WhereStandaloneTables Where = "standalone_tables"
	WhereReferencesParent Where = "references_parent"
	WhereNotSpecified     Where = "not_specified"
)

// IsAnywhere reports whether w matches every placement.
func (w Where) IsAnywhere() bool { return w == WhereAnywhere || w == "" }

// Includes reports whether a rule bound to w applies at the given placement.
func (w Where) Includes(other Where) bool {
	if w.IsAnywhere() {
		return true
	}
	return w == other
}

// InitiatedBy tells rules whether a live user or the framework itself asks.
type InitiatedBy string

const (
	InitiatedByUser      InitiatedBy = "user"
	InitiatedByFramework InitiatedBy = "framework"
)

// AccessIntent distinguishes read paths from write paths.
type AccessIntent string

const (
	AccessRead   AccessIntent = "access"
	AccessMutate AccessIntent = "mutate"
)

func (a AccessIntent) IsMutate() bool { return a == AccessMutate }

// SemanticsConstraint is what an entry point requires of the action it invokes.
type SemanticsConstraint string

const (
	ConstraintNone       SemanticsConstraint = "none"
	ConstraintIdempotent SemanticsConstraint = "idempotent"
	ConstraintSafe       SemanticsConstraint = "safe"
)

// ActionSemantics is what an action declares about its side effects.
type ActionSemantics string

const (
	SemanticsSafe                    ActionSemantics = "safe"
	SemanticsSafeAndRequestCacheable ActionSemantics = "safe_and_request_cacheable"
	SemanticsIdempotent              ActionSemantics = "idempotent"
	SemanticsIdempotentAreYouSure    ActionSemantics = "idempotent_are_you_sure"
	SemanticsNonIdempotent           ActionSemantics = "non_idempotent"
	SemanticsNonIdempotentAreYouSure ActionSemantics = "non_idempotent_are_you_sure"
)

// IsSafeInNature reports whether the action has no side effects.
func (s ActionSemantics) IsSafeInNature() bool {
	return s == SemanticsSafe || s == SemanticsSafeAndRequestCacheable
}

// IsIdempotentInNature reports whether repeating the action is harmless.
// Safe actions are idempotent too.
func (s ActionSemantics) IsIdempotentInNature() bool {
	return s.IsSafeInNature() || s == SemanticsIdempotent || s == SemanticsIdempotentAreYouSure
}

// ParseActionSemantics accepts the snake case names as well as their
// upper-case and hyphenated spellings. The empty string maps to non-idempotent.
func ParseActionSemantics(s string) (ActionSemantics, error) {
	if s == "" {
		return SemanticsNonIdempotent, nil
	}
	norm := ActionSemantics(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch norm {
	case SemanticsSafe, SemanticsSafeAndRequestCacheable, SemanticsIdempotent,
		SemanticsIdempotentAreYouSure, SemanticsNonIdempotent, SemanticsNonIdempotentAreYouSure:
		return norm, nil
	}
	return "", fmt.Errorf("unknown action semantics: %q", s)
}
