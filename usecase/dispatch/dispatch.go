package dispatch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/internal/metrics"
	"github.com/fastygo/liveassist/repository"
	"github.com/fastygo/liveassist/usecase"
)

// Outcome describes what happened to a single action.
type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// Handler resolves one action spec into broadcasts.
type Handler func(ctx context.Context, scope domain.Scope, action domain.ActionSpec) Outcome

// Dispatcher runs triggered actions one at a time, in order. Each action is
// isolated: a skipped or failed action never affects the next one.
type Dispatcher struct {
	broadcaster usecase.Broadcaster
	products    repository.ProductRepository
	logger      *zap.Logger

	mu       sync.RWMutex
	handlers map[domain.ActionKind]Handler
}

// New builds a dispatcher with the reply and pin_product handlers registered.
func New(broadcaster usecase.Broadcaster, products repository.ProductRepository, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		broadcaster: broadcaster,
		products:    products,
		logger:      logger,
		handlers:    make(map[domain.ActionKind]Handler),
	}
	d.Register(domain.ActionReply, d.reply)
	d.Register(domain.ActionPinProduct, d.pinProduct)
	return d
}

// Register installs or replaces the handler for kind.
func (d *Dispatcher) Register(kind domain.ActionKind, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = handler
}

// Dispatch processes actions sequentially. Outcomes are logged and counted only.
func (d *Dispatcher) Dispatch(ctx context.Context, scope domain.Scope, actions []domain.ActionSpec) {
	d.Execute(ctx, scope, actions)
}

// Execute is Dispatch returning the per-action outcomes, in input order.
func (d *Dispatcher) Execute(ctx context.Context, scope domain.Scope, actions []domain.ActionSpec) []Outcome {
	outcomes := make([]Outcome, 0, len(actions))
	for _, action := range actions {
		outcome := d.dispatchOne(ctx, scope, action)
		metrics.ActionsDispatched.WithLabelValues(string(action.Kind()), string(outcome)).Inc()
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, scope domain.Scope, action domain.ActionSpec) Outcome {
	kind := action.Kind()

	d.mu.RLock()
	handler, ok := d.handlers[kind]
	d.mu.RUnlock()
	if !ok {
		d.logger.Debug("unsupported rule action encountered", zap.String("action", string(kind)))
		return OutcomeSkipped
	}
	return handler(ctx, scope, action)
}

func (d *Dispatcher) reply(ctx context.Context, _ domain.Scope, action domain.ActionSpec) Outcome {
	text, ok := action.Text()
	if !ok {
		d.logger.Debug("reply action skipped due to missing text")
		return OutcomeSkipped
	}
	d.broadcaster.Deliver(ctx, domain.EventTypeAutoReply, map[string]any{"text": text})
	return OutcomeSent
}

func (d *Dispatcher) pinProduct(ctx context.Context, scope domain.Scope, action domain.ActionSpec) Outcome {
	productID, ok := action.ProductID()
	if !ok {
		d.logger.Debug("pin_product action skipped due to invalid product_id", zap.Any("product_id", action["product_id"]))
		return OutcomeSkipped
	}

	product, err := d.products.GetByID(ctx, scope.OwnerID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			d.logger.Warn("pin_product action skipped; product not found",
				zap.Int64("product_id", productID),
				zap.Int64("owner_id", scope.OwnerID))
			return OutcomeNotFound
		}
		d.logger.Error("pin_product action skipped; product lookup failed",
			zap.Int64("product_id", productID),
			zap.Error(err))
		return OutcomeFailed
	}

	d.broadcaster.Deliver(ctx, domain.EventTypePinProduct, map[string]any{"product": product.Snapshot()})
	return OutcomeSent
}

var _ usecase.ActionDispatcher = (*Dispatcher)(nil)
