package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/railway"
	"github.com/aretw0/parley/pkg/snapshot"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates dialog access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a crashed replica can hold a dialog.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.For(logger, "session")
	}
}

// NewManager creates a new dialog Manager over the given store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(dialogID) after unlocking.
func (m *Manager) acquire(dialogID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[dialogID]
	if !exists {
		entry = &lockEntry{}
		m.locks[dialogID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(dialogID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[dialogID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, dialogID)
	}
}

// Park snapshots model and stores it under dialogID, replacing any earlier
// snapshot of the same dialog.
func (m *Manager) Park(ctx context.Context, dialogID string, model *managed.ParameterNegotiationModel) error {
	snap, err := snapshot.Create(model)
	if err != nil {
		return err
	}
	return m.WithLock(ctx, dialogID, func(ctx context.Context) error {
		if err := m.store.Save(ctx, dialogID, snap); err != nil {
			return fmt.Errorf("park dialog %s: %w", dialogID, err)
		}
		m.logger.Debug("dialog parked", "dialog_id", dialogID, "action", snap.ActionID)
		return nil
	})
}

// Resume rebuilds the negotiation parked under dialogID. The snapshot stays
// in the store until the dialog is submitted or discarded.
func (m *Manager) Resume(ctx context.Context, dialogID string, env *managed.Env, where domain.Where) (*managed.ParameterNegotiationModel, error) {
	var model *managed.ParameterNegotiationModel
	err := m.WithLock(ctx, dialogID, func(ctx context.Context) error {
		var err error
		model, err = m.resume(ctx, dialogID, env, where)
		return err
	})
	return model, err
}

func (m *Manager) resume(ctx context.Context, dialogID string, env *managed.Env, where domain.Where) (*managed.ParameterNegotiationModel, error) {
	snap, err := m.store.Load(ctx, dialogID)
	if err != nil {
		return nil, fmt.Errorf("resume dialog %s: %w", dialogID, err)
	}
	return snapshot.RestoreFor(ctx, env, snap, where)
}

// Update resumes a dialog, lets fn edit the negotiation and parks the result,
// all under the dialog's lock.
func (m *Manager) Update(ctx context.Context, dialogID string, env *managed.Env, where domain.Where, fn func(*managed.ParameterNegotiationModel) error) error {
	return m.WithLock(ctx, dialogID, func(ctx context.Context) error {
		model, err := m.resume(ctx, dialogID, env, where)
		if err != nil {
			return err
		}
		if err := fn(model); err != nil {
			return err
		}
		snap, err := snapshot.Create(model)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, dialogID, snap)
	})
}

// Submit resumes the dialog and invokes it. The snapshot is deleted only when
// the invocation succeeds, so a vetoed dialog can be corrected and retried.
func (m *Manager) Submit(ctx context.Context, dialogID string, env *managed.Env, where domain.Where) (railway.Railway[metamodel.ManagedObject], error) {
	var result railway.Railway[metamodel.ManagedObject]
	err := m.WithLock(ctx, dialogID, func(ctx context.Context) error {
		model, err := m.resume(ctx, dialogID, env, where)
		if err != nil {
			return err
		}
		result, err = model.Invoke(ctx)
		if err != nil || result.IsFailure() {
			return err
		}
		if err := m.store.Delete(ctx, dialogID); err != nil {
			m.logger.Warn("failed to delete submitted dialog", "dialog_id", dialogID, "err", err)
		}
		return nil
	})
	return result, err
}

// Discard removes a parked dialog. Discarding an unknown dialog is not an error.
func (m *Manager) Discard(ctx context.Context, dialogID string) error {
	return m.WithLock(ctx, dialogID, func(ctx context.Context) error {
		err := m.store.Delete(ctx, dialogID)
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return nil
		}
		return err
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the dialog.
func (m *Manager) WithLock(ctx context.Context, dialogID string, fn func(context.Context) error) error {
	entry := m.acquire(dialogID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(dialogID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, dialogID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"dialog_id", dialogID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
