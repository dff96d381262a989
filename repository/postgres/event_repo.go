package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns a Postgres-backed EventRepository.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event == nil || event.Type == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO events (stream_id, type, payload_json)
	VALUES ($1, $2, $3)
	RETURNING id, ts
	`

	payload, err := marshalObject(event.Payload)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx, query,
		event.StreamID,
		event.Type,
		payload,
	).Scan(&event.ID, &event.Timestamp)
}
