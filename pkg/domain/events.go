package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventVeto         EventType = "veto"
	EventInvoke       EventType = "invoke"
	EventInvokeReturn EventType = "invoke_return"
	EventModify       EventType = "modify"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	OwnerType string    `json:"owner_type"`
	MemberID  string    `json:"member_id"`
}

// VetoEvent is emitted whenever an interaction ends in a veto.
type VetoEvent struct {
	EventBase
	MemberType MemberType `json:"member_type"`
	VetoType   VetoType   `json:"veto_type"`
	Reason     string     `json:"reason"`
}

// InvocationEvent represents an action invocation and, on return, its outcome.
type InvocationEvent struct {
	EventBase
	InitiatedBy InitiatedBy   `json:"initiated_by"`
	ArgCount    int           `json:"arg_count"`
	Duration    time.Duration `json:"duration,omitempty"`
	Routed      bool          `json:"routed,omitempty"`
	IsError     bool          `json:"is_error,omitempty"`
}

// ModificationEvent represents a successful property modification.
type ModificationEvent struct {
	EventBase
	OwnerReplaced bool `json:"owner_replaced"`
}

// LifecycleHooks defines callbacks for interaction observability.
// Any of them may be nil.
type LifecycleHooks struct {
	OnVeto         func(context.Context, *VetoEvent)
	OnInvoke       func(context.Context, *InvocationEvent)
	OnInvokeReturn func(context.Context, *InvocationEvent)
	OnModify       func(context.Context, *ModificationEvent)
}

// EmitVeto fires OnVeto if set.
func (h LifecycleHooks) EmitVeto(ctx context.Context, ownerType string, memberType MemberType, memberID string, v InteractionVeto) {
	if h.OnVeto == nil {
		return
	}
	h.OnVeto(ctx, &VetoEvent{
		EventBase:  EventBase{Timestamp: time.Now(), Type: EventVeto, OwnerType: ownerType, MemberID: memberID},
		MemberType: memberType,
		VetoType:   v.Type(),
		Reason:     v.ReasonAsString(),
	})
}
