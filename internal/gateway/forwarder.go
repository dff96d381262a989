package gateway

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/internal/metrics"
	appLogger "github.com/fastygo/liveassist/pkg/logger"
	"github.com/fastygo/liveassist/usecase"
)

// ErrNoEndpoints is returned by Redeliver when no candidate is configured.
var ErrNoEndpoints = errors.New("no gateway endpoints configured")

// Config tunes delivery.
type Config struct {
	// AttemptTimeout bounds a single endpoint attempt.
	AttemptTimeout time.Duration
	// Budget bounds one whole delivery across all candidates.
	Budget time.Duration
	// HedgeDelay starts the next candidate when the current one has not
	// answered in time. Zero walks candidates strictly one after another.
	HedgeDelay time.Duration
	Breaker    BreakerConfig
}

// Spooler keeps envelopes that no candidate accepted.
type Spooler interface {
	Spool(ctx context.Context, env Envelope) error
}

// Forwarder broadcasts events to the first gateway candidate that accepts them.
type Forwarder struct {
	resolver Resolver
	spool    Spooler
	breakers *breakerSet
	logger   *zap.Logger
	cfg      Config
}

// NewForwarder builds a forwarder. spool may be nil, in which case undelivered
// envelopes are dropped after logging.
func NewForwarder(resolver Resolver, spool Spooler, logger *zap.Logger, cfg Config) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = StaticResolver(nil)
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 5 * time.Second
	}
	if cfg.Budget <= 0 {
		cfg.Budget = 10 * time.Second
	}
	return &Forwarder{
		resolver: resolver,
		spool:    spool,
		breakers: newBreakerSet(cfg.Breaker, logger),
		logger:   logger,
		cfg:      cfg,
	}
}

// Deliver forwards one event. Failures are logged and never returned.
func (f *Forwarder) Deliver(ctx context.Context, eventType string, payload map[string]any) {
	env := NewEnvelope(eventType, payload)
	log := appLogger.WithRequestID(ctx, f.logger)

	err := f.walk(ctx, env, log)
	if err == nil || errors.Is(err, ErrNoEndpoints) {
		return
	}

	metrics.GatewayUndelivered.Inc()
	log.Error("unable to broadcast event after trying all endpoints",
		zap.String("event_type", eventType),
		zap.String("channel", env.Channel),
		zap.Error(err))

	if f.spool == nil {
		return
	}
	if err := f.spool.Spool(context.WithoutCancel(ctx), env); err != nil {
		log.Error("failed to spool undelivered broadcast", zap.String("channel", env.Channel), zap.Error(err))
	}
}

// Redeliver runs the candidate walk for an already built envelope and reports
// the outcome. It never spools.
func (f *Forwarder) Redeliver(ctx context.Context, env Envelope) error {
	return f.walk(ctx, env, appLogger.WithRequestID(ctx, f.logger))
}

func (f *Forwarder) walk(ctx context.Context, env Envelope, log *zap.Logger) error {
	endpoints := f.resolver.Endpoints(ctx)
	if len(endpoints) == 0 {
		return ErrNoEndpoints
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Budget)
	defer cancel()

	if f.cfg.HedgeDelay <= 0 {
		return f.sequential(ctx, endpoints, env, log)
	}
	return f.hedged(ctx, endpoints, env, log)
}

func (f *Forwarder) sequential(ctx context.Context, endpoints []Endpoint, env Envelope, log *zap.Logger) error {
	var lastErr error
	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		err := f.attempt(ctx, ep, env, log)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (f *Forwarder) hedged(ctx context.Context, endpoints []Endpoint, env Envelope, log *zap.Logger) error {
	hedgeCtx, cancelPending := context.WithCancel(ctx)
	defer cancelPending()

	results := make(chan error, len(endpoints))
	launched, finished := 0, 0
	launch := func() {
		ep := endpoints[launched]
		launched++
		go func() {
			results <- f.attempt(hedgeCtx, ep, env, log)
		}()
	}

	timer := time.NewTimer(f.cfg.HedgeDelay)
	defer timer.Stop()

	var lastErr error
	launch()
	for finished < launched {
		select {
		case err := <-results:
			finished++
			if err == nil {
				return nil
			}
			lastErr = err
			if launched < len(endpoints) {
				launch()
				timer.Reset(f.cfg.HedgeDelay)
			}
		case <-timer.C:
			if launched < len(endpoints) {
				launch()
				timer.Reset(f.cfg.HedgeDelay)
			}
		case <-ctx.Done():
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			return lastErr
		}
	}
	return lastErr
}

func (f *Forwarder) attempt(ctx context.Context, ep Endpoint, env Envelope, log *zap.Logger) error {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.AttemptTimeout)
	defer cancel()

	name := ep.Name()
	err := f.breakers.run(name, func() error {
		return ep.Send(attemptCtx, env)
	})
	switch {
	case err == nil:
		metrics.GatewayAttempts.WithLabelValues(name, "success").Inc()
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// Another candidate already won.
		metrics.GatewayAttempts.WithLabelValues(name, "abandoned").Inc()
		log.Debug("broadcast attempt abandoned", zap.String("endpoint", name))
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GatewayAttempts.WithLabelValues(name, "rejected").Inc()
	default:
		metrics.GatewayAttempts.WithLabelValues(name, "failure").Inc()
	}
	log.Warn("failed to broadcast event", zap.String("endpoint", name), zap.Error(err))
	return err
}

var _ usecase.Broadcaster = (*Forwarder)(nil)
