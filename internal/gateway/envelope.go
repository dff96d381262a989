package gateway

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/fastygo/liveassist/domain"
)

const (
	ChannelChat = "chat.events"
	ChannelGift = "gift.events"
)

// ChannelFor maps an event type to the gateway channel it is published on.
// Unknown types go to the chat channel.
func ChannelFor(eventType string) string {
	switch eventType {
	case domain.EventTypeGift:
		return ChannelGift
	default:
		return ChannelChat
	}
}

// Envelope is the body posted to a gateway endpoint.
type Envelope struct {
	Channel string         `json:"channel"`
	Message map[string]any `json:"message"`
}

// NewEnvelope wraps a payload for the gateway. The message carries the event
// type under "type"; a payload "type" key overwrites it.
func NewEnvelope(eventType string, payload map[string]any) Envelope {
	message := make(map[string]any, len(payload)+1)
	message["type"] = eventType
	for k, v := range payload {
		message[k] = v
	}
	return Envelope{
		Channel: ChannelFor(eventType),
		Message: message,
	}
}

// EventType returns the "type" the message is published under.
func (e Envelope) EventType() string {
	t, _ := e.Message["type"].(string)
	return t
}

// Encode renders the envelope as JSON.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses an encoded envelope, keeping numbers as json.Number.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, err
	}
	if env.Message == nil {
		env.Message = map[string]any{}
	}
	return env, nil
}

func (e Envelope) encodeMessage() ([]byte, error) {
	if e.Message == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Message)
}
