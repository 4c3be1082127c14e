package domain

import (
	"fmt"
	"strings"
)

// Bookmark is a serializable reference to a domain object by content identity:
// its logical type plus an identifier that is stable across requests.
type Bookmark struct {
	LogicalTypeName string `json:"type"`
	Identifier      string `json:"id"`
}

func (b Bookmark) String() string {
	return b.LogicalTypeName + ":" + b.Identifier
}

func (b Bookmark) IsZero() bool {
	return b.LogicalTypeName == "" && b.Identifier == ""
}

// ParseBookmark is the inverse of Bookmark.String. The identifier may itself
// contain colons; only the first one separates it from the type.
func ParseBookmark(s string) (Bookmark, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || typ == "" {
		return Bookmark{}, fmt.Errorf("malformed bookmark %q: expected <type>:<id>", s)
	}
	return Bookmark{LogicalTypeName: typ, Identifier: id}, nil
}
