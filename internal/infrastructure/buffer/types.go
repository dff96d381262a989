package buffer

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Item is one broadcast that no gateway candidate accepted.
type Item struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	EventType string          `json:"event_type"`
	Message   json.RawMessage `json:"message"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
	if len(i.Message) == 0 {
		i.Message = json.RawMessage("{}")
	}
}
