package services

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/internal/gateway"
	"github.com/fastygo/liveassist/internal/infrastructure/buffer"
	"github.com/fastygo/liveassist/internal/metrics"
)

// SpoolBridge stores envelopes the forwarder could not deliver.
type SpoolBridge struct {
	store *buffer.Store
}

func NewSpoolBridge(store *buffer.Store) *SpoolBridge {
	return &SpoolBridge{store: store}
}

func (b *SpoolBridge) Spool(_ context.Context, env gateway.Envelope) error {
	if b == nil || b.store == nil {
		return domain.ErrInvalidPayload
	}
	message, err := json.Marshal(env.Message)
	if err != nil {
		return err
	}
	item := buffer.Item{
		Channel:   env.Channel,
		EventType: env.EventType(),
		Message:   message,
	}
	if err := b.store.Enqueue(item); err != nil {
		return err
	}
	if size, err := b.store.Size(); err == nil {
		metrics.SpoolSize.Set(float64(size))
	}
	return nil
}

var _ gateway.Spooler = (*SpoolBridge)(nil)
