// Package snapshot captures a pending parameter negotiation as bookmarks so
// that it can cross a process boundary and be rebuilt on the other side.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Create bookmarks the owner and every pending value of model.
func Create(model *managed.ParameterNegotiationModel) (*domain.PendingParams, error) {
	a := model.Action()
	objects := a.Env().Objects
	if objects == nil {
		return nil, fmt.Errorf("snapshot %s: no object manager", a.ID())
	}

	owner, err := objects.Bookmark(model.Head().Owner)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s owner: %w", a.ID(), err)
	}
	snap := &domain.PendingParams{
		ActionID: a.ID(),
		Owner:    owner,
		Params:   make([]domain.PendingParam, model.ParamCount()),
	}
	for i, p := range model.ParamModels() {
		pp, err := managed.EncodeArg(objects, p.Descriptor(), p.Value())
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", a.ID(), err)
		}
		snap.Params[i] = pp
	}
	return snap, nil
}

// Restore rebuilds a fresh negotiation of action from snap. Dirty flags,
// validation feedback and choices start over.
func Restore(ctx context.Context, action *managed.Action, snap *domain.PendingParams) (*managed.ParameterNegotiationModel, error) {
	desc := action.Descriptor()
	if snap.ActionID != desc.ID {
		return nil, fmt.Errorf("%w: snapshot of %s restored against %s", domain.ErrSnapshotMismatch, snap.ActionID, desc.ID)
	}
	if len(snap.Params) != desc.ParamCount() {
		return nil, fmt.Errorf("%w: %s has %d parameters, snapshot has %d",
			domain.ErrSnapshotMismatch, desc.ID, desc.ParamCount(), len(snap.Params))
	}

	values := make([]metamodel.ManagedObject, len(snap.Params))
	for i, pp := range snap.Params {
		param := desc.Params[i]
		if pp.Plural != param.Plural {
			return nil, fmt.Errorf("%w: cardinality of %s.%s changed", domain.ErrSnapshotMismatch, desc.ID, param.ID)
		}
		v, err := managed.DecodeArg(ctx, action.Env(), pp)
		if err != nil {
			return nil, fmt.Errorf("restore %s.%s: %w", desc.ID, param.ID, err)
		}
		values[i] = v
	}
	return action.RestoreParameterNegotiation(ctx, values)
}

// RestoreFor resolves the owner of snap and restores the negotiation of its
// action.
func RestoreFor(ctx context.Context, env *managed.Env, snap *domain.PendingParams, where domain.Where) (*managed.ParameterNegotiationModel, error) {
	if env.Objects == nil {
		return nil, fmt.Errorf("restore %s: no object manager", snap.ActionID)
	}
	owner, err := env.Objects.Resolve(ctx, snap.Owner)
	if err != nil {
		return nil, fmt.Errorf("restore %s owner: %w", snap.ActionID, err)
	}
	action, ok := managed.LookupAction(ctx, env, owner, snap.ActionID, where)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no action %s", domain.ErrSnapshotMismatch, owner.LogicalTypeName(), snap.ActionID)
	}
	return Restore(ctx, action, snap)
}

// Marshal encodes snap as JSON.
func Marshal(snap *domain.PendingParams) ([]byte, error) {
	return json.Marshal(snap)
}

// Unmarshal decodes a snapshot written by Marshal.
func Unmarshal(data []byte) (*domain.PendingParams, error) {
	var snap domain.PendingParams
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
