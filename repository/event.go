package repository

import (
	"context"

	"github.com/fastygo/liveassist/domain"
)

// EventRepository persists ingested events. Create fills ID and Timestamp.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
}
