package domain

import (
	"strings"
	"time"
)

// Known event types. Any other type is accepted and stored as-is.
const (
	EventTypeChat       = "chat"
	EventTypeGift       = "gift"
	EventTypeAutoReply  = "auto_reply"
	EventTypePinProduct = "pin_product"
)

// Payload is the arbitrary JSON object attached to an event.
type Payload map[string]any

// Clone returns a shallow copy so callers can hand the payload to several stages.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ChatText extracts the chat line: "text" first, "message" when "text" is falsy.
// ok is false unless the value is a string with non-whitespace content.
func (p Payload) ChatText() (string, bool) {
	v, present := p["text"]
	if !present || !truthy(v) {
		v = p["message"]
	}
	s, isString := v.(string)
	if !isString || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Event is one ingested occurrence. It is written once and never mutated.
type Event struct {
	ID        int64     `json:"id"`
	StreamID  int64     `json:"stream_id"`
	Type      string    `json:"type"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"ts"`
}

// TypeLabel folds an event type into the bounded set used for metric labels.
func TypeLabel(eventType string) string {
	switch eventType {
	case EventTypeChat, EventTypeGift:
		return eventType
	default:
		return "other"
	}
}

// IsChat reports whether the event is subject to rule evaluation.
func (e *Event) IsChat() bool {
	return e != nil && e.Type == EventTypeChat
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
