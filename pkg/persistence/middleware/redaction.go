package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

type redactionMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that drops the values of
// parameters whose element type matches one of the patterns. Redacted slots
// are restored empty, so the user has to enter them again.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, dialogID string, snap *domain.PendingParams) error {
	// Copy; the caller may still hold the snapshot.
	redacted := *snap
	redacted.Params = make([]domain.PendingParam, len(snap.Params))
	for i, p := range snap.Params {
		if m.sensitive(p.ElementType) {
			p.Bookmarks = nil
		}
		redacted.Params[i] = p
	}
	return m.next.Save(ctx, dialogID, &redacted)
}

func (m *redactionMiddleware) sensitive(typeName string) bool {
	for _, p := range m.patterns {
		if p.MatchString(typeName) {
			return true
		}
	}
	return false
}

func (m *redactionMiddleware) Load(ctx context.Context, dialogID string) (*domain.PendingParams, error) {
	return m.next.Load(ctx, dialogID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, dialogID string) error {
	return m.next.Delete(ctx, dialogID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
