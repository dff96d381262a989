package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/internal/gateway"
	"github.com/fastygo/liveassist/internal/infrastructure/buffer"
	"github.com/fastygo/liveassist/internal/metrics"
)

// Redeliverer retries one envelope against the gateway candidates.
type Redeliverer interface {
	Redeliver(ctx context.Context, env gateway.Envelope) error
}

// ProcessorConfig controls how often the spool is drained.
type ProcessorConfig struct {
	// Schedule is a cron spec; empty runs every Interval.
	Schedule   string
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// SpoolProcessor redelivers spooled broadcasts on a schedule.
type SpoolProcessor struct {
	store     *buffer.Store
	forwarder Redeliverer
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ProcessorConfig
}

// NewSpoolProcessor registers the drain job. An unparsable schedule is an error.
func NewSpoolProcessor(store *buffer.Store, forwarder Redeliverer, logger *zap.Logger, cfg ProcessorConfig) (*SpoolProcessor, error) {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := &SpoolProcessor{
		store:     store,
		forwarder: forwarder,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := cfg.Schedule
	if schedule == "" {
		schedule = fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	}
	if _, err := sp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sp.Drain(ctx); err != nil {
			sp.logger.Error("spool drain failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid spool schedule %q: %w", schedule, err)
	}

	return sp, nil
}

// Start launches the cron scheduler.
func (sp *SpoolProcessor) Start() {
	if sp == nil || sp.cron == nil {
		return
	}
	sp.cron.Start()
	sp.logger.Info("spool processor started", zap.Duration("interval", sp.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (sp *SpoolProcessor) Stop(ctx context.Context) {
	if sp == nil || sp.cron == nil {
		return
	}
	stopCtx := sp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sp.logger.Info("spool processor stopped")
}

// Drain redelivers the oldest spooled envelopes. A failed redelivery is
// requeued and ends the pass; items past MaxRetries or Retention are dropped.
func (sp *SpoolProcessor) Drain(ctx context.Context) error {
	if sp == nil || sp.store == nil {
		return nil
	}
	defer sp.refreshSize()

	if removed, err := sp.store.Cleanup(time.Now().Add(-sp.cfg.Retention)); err != nil {
		sp.logger.Warn("spool cleanup failed", zap.Error(err))
	} else if removed > 0 {
		metrics.SpoolRedelivered.WithLabelValues("expired").Add(float64(removed))
		sp.logger.Warn("dropped expired spool items", zap.Int("count", removed))
	}

	items, err := sp.store.Peek(sp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return nil
		}
		env, err := envelopeFromItem(item)
		if err != nil {
			sp.logger.Warn("dropping unreadable spool item", zap.String("item_id", item.ID), zap.Error(err))
			metrics.SpoolRedelivered.WithLabelValues("dropped").Inc()
			_ = sp.store.Remove(item)
			continue
		}

		if err := sp.forwarder.Redeliver(ctx, env); err != nil {
			sp.retry(item, err)
			return nil
		}

		metrics.SpoolRedelivered.WithLabelValues("success").Inc()
		if err := sp.store.Remove(item); err != nil {
			sp.logger.Warn("failed to purge redelivered spool item", zap.String("item_id", item.ID), zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of spooled items.
func (sp *SpoolProcessor) Size() int {
	if sp == nil || sp.store == nil {
		return 0
	}
	size, err := sp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (sp *SpoolProcessor) retry(item buffer.Item, cause error) {
	item.Retries++
	log := sp.logger.With(
		zap.String("item_id", item.ID),
		zap.String("channel", item.Channel),
		zap.Int("retries", item.Retries),
	)

	if item.Retries >= sp.cfg.MaxRetries {
		log.Warn("dropping spool item (max retries reached)", zap.Error(cause))
		metrics.SpoolRedelivered.WithLabelValues("dropped").Inc()
		if err := sp.store.Remove(item); err != nil {
			log.Error("failed to remove spool item", zap.Error(err))
		}
		return
	}

	log.Debug("spool redelivery failed", zap.Error(cause))
	metrics.SpoolRedelivered.WithLabelValues("failure").Inc()
	if err := sp.store.Requeue(item); err != nil {
		log.Error("failed to requeue spool item", zap.Error(err))
	}
}

func (sp *SpoolProcessor) refreshSize() {
	metrics.SpoolSize.Set(float64(sp.Size()))
}

func envelopeFromItem(item buffer.Item) (gateway.Envelope, error) {
	message := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(item.Message))
	dec.UseNumber()
	if err := dec.Decode(&message); err != nil {
		return gateway.Envelope{}, err
	}
	if message == nil {
		message = map[string]any{}
	}
	return gateway.Envelope{Channel: item.Channel, Message: message}, nil
}
