package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LoggingHooks logs every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnVeto: func(ctx context.Context, e *domain.VetoEvent) {
			logger.InfoContext(ctx, "veto",
				"owner_type", e.OwnerType,
				"member", e.MemberID,
				"member_type", e.MemberType,
				"veto_type", e.VetoType.String(),
				"reason", e.Reason,
			)
		},
		OnInvoke: func(ctx context.Context, e *domain.InvocationEvent) {
			logger.DebugContext(ctx, "invoke", "owner_type", e.OwnerType, "action", e.MemberID, "args", e.ArgCount)
		},
		OnInvokeReturn: func(ctx context.Context, e *domain.InvocationEvent) {
			logger.InfoContext(ctx, "invoke_return",
				"owner_type", e.OwnerType,
				"action", e.MemberID,
				"duration", e.Duration,
				"routed", e.Routed,
				"is_error", e.IsError,
			)
		},
		OnModify: func(ctx context.Context, e *domain.ModificationEvent) {
			logger.InfoContext(ctx, "modify", "owner_type", e.OwnerType, "property", e.MemberID, "owner_replaced", e.OwnerReplaced)
		},
	}
}

// Combine returns hooks that call each of the given hooks in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnVeto = then(out.OnVeto, h.OnVeto)
		out.OnInvoke = then(out.OnInvoke, h.OnInvoke)
		out.OnInvokeReturn = then(out.OnInvokeReturn, h.OnInvokeReturn)
		out.OnModify = then(out.OnModify, h.OnModify)
	}
	return out
}

func then[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
