package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/internal/metrics"
)

// BreakerConfig controls per-endpoint circuit breaking. Zero Failures disables it.
type BreakerConfig struct {
	Failures uint32
	Cooldown time.Duration
}

type breakerSet struct {
	cfg    BreakerConfig
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func newBreakerSet(cfg BreakerConfig, logger *zap.Logger) *breakerSet {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &breakerSet{
		cfg:      cfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// run sends through the endpoint's breaker. An open breaker fails fast with
// gobreaker.ErrOpenState.
func (b *breakerSet) run(name string, send func() error) error {
	cb := b.get(name)
	if cb == nil {
		return send()
	}
	_, err := cb.Execute(func() (struct{}, error) {
		return struct{}{}, send()
	})
	return err
}

func (b *breakerSet) get(name string) *gobreaker.CircuitBreaker[struct{}] {
	if b == nil || b.cfg.Failures == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[name]; ok {
		return cb
	}
	threshold := b.cfg.Failures
	metrics.BreakerState.WithLabelValues(name).Set(0)
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     b.cfg.Cooldown,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			b.logger.Info("gateway breaker state changed",
				zap.String("endpoint", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	b.breakers[name] = cb
	return cb
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
