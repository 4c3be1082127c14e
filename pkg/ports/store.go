package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// SnapshotStore persists pending-params snapshots between requests, so that
// an unsubmitted parameter negotiation survives a process boundary.
type SnapshotStore interface {
	// Save persists the snapshot under the given dialog ID.
	Save(ctx context.Context, dialogID string, snap *domain.PendingParams) error

	// Load retrieves the snapshot for a dialog ID.
	// Returns domain.ErrSnapshotNotFound if there is none.
	Load(ctx context.Context, dialogID string) (*domain.PendingParams, error)

	// Delete removes the snapshot for a dialog ID.
	Delete(ctx context.Context, dialogID string) error

	// List returns the dialog IDs with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
