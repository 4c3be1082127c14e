package domain

// PendingParams is the serialized form of a parameter negotiation that has not
// been submitted yet. It only holds content identifiers, never live objects.
type PendingParams struct {
	ActionID string         `json:"action_id"`
	Owner    Bookmark       `json:"owner"`
	Params   []PendingParam `json:"params"`
}

// PendingParam is one parameter slot. Plural is recorded explicitly: a single
// bookmark is otherwise ambiguous between a scalar and a one-element plural.
// A scalar without a value has no bookmarks.
type PendingParam struct {
	Plural      bool       `json:"plural"`
	ElementType string     `json:"element_type"`
	Bookmarks   []Bookmark `json:"bookmarks,omitempty"`
}
