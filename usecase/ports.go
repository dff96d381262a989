package usecase

import (
	"context"

	"github.com/fastygo/liveassist/domain"
)

// Broadcaster forwards one event to the downstream gateway. Delivery is
// best-effort: implementations log failures and never report them.
type Broadcaster interface {
	Deliver(ctx context.Context, eventType string, payload map[string]any)
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(ctx context.Context, eventType string, payload map[string]any)

func (f BroadcasterFunc) Deliver(ctx context.Context, eventType string, payload map[string]any) {
	f(ctx, eventType, payload)
}

// ActionDispatcher runs triggered actions for a scope, isolating each one.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, scope domain.Scope, actions []domain.ActionSpec)
}

// ActionDispatcherFunc adapts a function to ActionDispatcher.
type ActionDispatcherFunc func(ctx context.Context, scope domain.Scope, actions []domain.ActionSpec)

func (f ActionDispatcherFunc) Dispatch(ctx context.Context, scope domain.Scope, actions []domain.ActionSpec) {
	f(ctx, scope, actions)
}
