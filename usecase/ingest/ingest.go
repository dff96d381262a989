package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/internal/metrics"
	appLogger "github.com/fastygo/liveassist/pkg/logger"
	"github.com/fastygo/liveassist/repository"
	"github.com/fastygo/liveassist/usecase"
	"github.com/fastygo/liveassist/usecase/rules"
)

// Config tunes the ingestion pipeline.
type Config struct {
	// Deadline bounds one whole ingestion: persist, forward, match and dispatch.
	Deadline time.Duration
}

// UseCase records inbound events and drives the forward → match → dispatch
// pipeline. Only persistence failures are reported to the caller.
type UseCase struct {
	events      repository.EventRepository
	rules       repository.RuleRepository
	broadcaster usecase.Broadcaster
	dispatcher  usecase.ActionDispatcher
	logger      *zap.Logger
	cfg         Config
}

func New(
	events repository.EventRepository,
	rules repository.RuleRepository,
	broadcaster usecase.Broadcaster,
	dispatcher usecase.ActionDispatcher,
	logger *zap.Logger,
	cfg Config,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = 20 * time.Second
	}
	return &UseCase{
		events:      events,
		rules:       rules,
		broadcaster: broadcaster,
		dispatcher:  dispatcher,
		logger:      logger,
		cfg:         cfg,
	}
}

// Ingest stores the event and runs the best-effort legs. The returned event
// carries the id and timestamp assigned by storage.
func (uc *UseCase) Ingest(ctx context.Context, scope domain.Scope, eventType string, payload domain.Payload) (*domain.Event, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Deadline)
	defer cancel()

	log := appLogger.WithRequestID(ctx, uc.logger).With(
		zap.String("event_type", eventType),
		zap.Int64("owner_id", scope.OwnerID),
		zap.Int64("stream_id", scope.StreamID),
	)

	event, err := uc.Persist(ctx, scope, eventType, payload)
	if err != nil {
		metrics.EventPersistFailures.Inc()
		log.Error("failed to persist event", zap.Error(err))
		return nil, err
	}
	metrics.EventsIngested.WithLabelValues(domain.TypeLabel(event.Type)).Inc()
	log = log.With(zap.Int64("event_id", event.ID))

	uc.Forward(ctx, event)

	if actions := uc.MatchRules(ctx, scope, event, log); len(actions) > 0 {
		uc.dispatcher.Dispatch(ctx, scope, actions)
	}

	metrics.IngestDuration.WithLabelValues(domain.TypeLabel(event.Type)).Observe(time.Since(started).Seconds())
	log.Debug("event ingested", zap.Duration("elapsed", time.Since(started)))
	return event, nil
}

// Persist builds the event record and writes it. This is the only fatal stage.
func (uc *UseCase) Persist(ctx context.Context, scope domain.Scope, eventType string, payload domain.Payload) (*domain.Event, error) {
	if eventType == "" {
		return nil, domain.ErrInvalidPayload
	}
	if payload == nil {
		payload = domain.Payload{}
	}
	event := &domain.Event{
		StreamID: scope.StreamID,
		Type:     eventType,
		Payload:  payload.Clone(),
	}
	if err := uc.events.Create(ctx, event); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, domain.ErrPersistEvent.Message, err)
	}
	return event, nil
}

// Forward hands the raw event to the broadcaster. The outcome is not observed.
func (uc *UseCase) Forward(ctx context.Context, event *domain.Event) {
	uc.broadcaster.Deliver(ctx, event.Type, event.Payload.Clone())
}

// MatchRules evaluates active rules against a chat event's text. Non-chat
// events, chat events without usable text and rule lookup failures yield no
// actions.
func (uc *UseCase) MatchRules(ctx context.Context, scope domain.Scope, event *domain.Event, log *zap.Logger) []domain.ActionSpec {
	if log == nil {
		log = uc.logger
	}
	if !event.IsChat() {
		return nil
	}
	text, ok := event.Payload.ChatText()
	if !ok {
		return nil
	}

	active, err := uc.rules.ListActive(ctx, scope.OwnerID)
	if err != nil {
		log.Error("failed to load active rules", zap.Error(err))
		return nil
	}

	actions := rules.Match(text, active)
	for _, a := range actions {
		metrics.ActionsTriggered.WithLabelValues(string(a.Kind())).Inc()
	}
	if len(actions) > 0 {
		log.Info("rules triggered", zap.Int("actions", len(actions)))
	}
	return actions
}
