package domain

import (
	"errors"
	"fmt"
)

// ErrSnapshotNotFound is returned when a pending-params snapshot cannot be found in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrSnapshotMismatch is returned when a snapshot does not fit the action it
// is restored against.
var ErrSnapshotMismatch = errors.New("snapshot does not match action")

// ErrUnknownType is returned when a logical type name is not registered.
var ErrUnknownType = errors.New("unknown logical type")

// ErrObjectNotFound is returned when a bookmark does not resolve to an object.
var ErrObjectNotFound = errors.New("object not found")

// ErrNotBookmarkable is returned when an object has no content identity.
var ErrNotBookmarkable = errors.New("object is not bookmarkable")

// AuthorizationError is returned by rule-checked invocation when the user may
// not invoke the action. Invocation has side effects, so this is surfaced as an
// error the caller has to handle rather than as a veto value.
type AuthorizationError struct {
	ActionID string
	Veto     InteractionVeto
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to invoke '%s': %s", e.ActionID, e.Veto.ReasonAsString())
}

// VetoError carries a veto as an error. It is the panic value of the Must
// accessors and the error of rule-checked invocation with invalid arguments.
type VetoError struct {
	Veto InteractionVeto
}

func (e *VetoError) Error() string {
	return "interaction vetoed: " + e.Veto.String()
}
