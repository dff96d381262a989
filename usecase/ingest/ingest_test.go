package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/usecase"
)

type memEvents struct {
	nextID int64
	stored []domain.Event
	err    error
}

func (m *memEvents) Create(_ context.Context, event *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	event.ID = m.nextID
	event.Timestamp = time.Unix(1700000000, 0).UTC()
	m.stored = append(m.stored, *event)
	return nil
}

type stubRules struct {
	rules  []domain.Rule
	err    error
	owners []int64
}

func (s *stubRules) ListActive(_ context.Context, ownerID int64) ([]domain.Rule, error) {
	s.owners = append(s.owners, ownerID)
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}

type forwarded struct {
	eventType string
	payload   map[string]any
}

type harness struct {
	events     *memEvents
	rules      *stubRules
	forwarded  []forwarded
	dispatched [][]domain.ActionSpec
	uc         *UseCase
}

func newHarness(logger *zap.Logger) *harness {
	h := &harness{
		events: &memEvents{},
		rules: &stubRules{rules: []domain.Rule{
			{ID: 1, OwnerID: 1, Trigger: "price", Action: domain.ActionReply, Params: map[string]any{"text": "Price is 1990"}, Active: true},
		}},
	}
	broadcaster := usecase.BroadcasterFunc(func(_ context.Context, eventType string, payload map[string]any) {
		h.forwarded = append(h.forwarded, forwarded{eventType: eventType, payload: payload})
	})
	dispatcher := usecase.ActionDispatcherFunc(func(_ context.Context, _ domain.Scope, actions []domain.ActionSpec) {
		h.dispatched = append(h.dispatched, actions)
	})
	h.uc = New(h.events, h.rules, broadcaster, dispatcher, logger, Config{})
	return h
}

var scope = domain.Scope{OwnerID: 1, StreamID: 1}

func TestIngest_ChatTriggersRule(t *testing.T) {
	h := newHarness(nil)

	event, err := h.uc.Ingest(context.Background(), scope, "chat", domain.Payload{"user": "a", "text": "What's the PRICE?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != 1 || event.StreamID != 1 || event.Timestamp.IsZero() {
		t.Fatalf("unexpected stored event: %+v", event)
	}
	if len(h.events.stored) != 1 {
		t.Fatalf("expected one stored event, got %d", len(h.events.stored))
	}

	wantForward := []forwarded{{eventType: "chat", payload: map[string]any{"user": "a", "text": "What's the PRICE?"}}}
	if !reflect.DeepEqual(h.forwarded, wantForward) {
		t.Fatalf("forwarded = %+v, want %+v", h.forwarded, wantForward)
	}

	wantActions := [][]domain.ActionSpec{{{"action": "reply", "text": "Price is 1990"}}}
	if !reflect.DeepEqual(h.dispatched, wantActions) {
		t.Fatalf("dispatched = %+v, want %+v", h.dispatched, wantActions)
	}
	if !reflect.DeepEqual(h.rules.owners, []int64{1}) {
		t.Fatalf("rules loaded for owners %v", h.rules.owners)
	}
}

func TestIngest_NonChatSkipsRules(t *testing.T) {
	h := newHarness(nil)

	_, err := h.uc.Ingest(context.Background(), scope, "gift", domain.Payload{"from": "b", "amount": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.rules.owners) != 0 {
		t.Fatalf("rules must not be loaded for non-chat events")
	}
	if len(h.dispatched) != 0 {
		t.Fatalf("nothing should be dispatched, got %v", h.dispatched)
	}
	if len(h.forwarded) != 1 || h.forwarded[0].eventType != "gift" {
		t.Fatalf("gift should be forwarded unchanged, got %+v", h.forwarded)
	}
}

func TestIngest_PersistFailureIsFatal(t *testing.T) {
	h := newHarness(nil)
	h.events.err = errors.New("connection refused")

	event, err := h.uc.Ingest(context.Background(), scope, "chat", domain.Payload{"text": "price"})
	if err == nil {
		t.Fatal("expected error")
	}
	if event != nil {
		t.Fatalf("expected nil event, got %+v", event)
	}
	if !errors.Is(err, domain.ErrPersistEvent) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if len(h.forwarded) != 0 || len(h.dispatched) != 0 || len(h.rules.owners) != 0 {
		t.Fatal("no downstream stage may run after a persist failure")
	}
}

func TestIngest_RuleLoadFailureStillSucceeds(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := newHarness(zap.New(core))
	h.rules.err = errors.New("timeout")

	if _, err := h.uc.Ingest(context.Background(), scope, "chat", domain.Payload{"text": "price"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.forwarded) != 1 {
		t.Fatalf("event should still be forwarded")
	}
	if len(h.dispatched) != 0 {
		t.Fatalf("nothing should be dispatched")
	}
	if logs.FilterMessage("failed to load active rules").Len() != 1 {
		t.Fatalf("expected rule load failure to be logged, got %v", logs.All())
	}
}

func TestIngest_ForwardOutcomeIgnored(t *testing.T) {
	events := &memEvents{}
	calls := 0
	broadcaster := usecase.BroadcasterFunc(func(context.Context, string, map[string]any) {
		// Every gateway endpoint is down; the broadcaster swallows it.
		calls++
	})
	uc := New(events, &stubRules{}, broadcaster, usecase.ActionDispatcherFunc(func(context.Context, domain.Scope, []domain.ActionSpec) {}), nil, Config{})

	if _, err := uc.Ingest(context.Background(), scope, "chat", domain.Payload{"text": "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(events.stored) != 1 {
		t.Fatalf("calls=%d stored=%d", calls, len(events.stored))
	}
}

func TestMatchRules_ChatText(t *testing.T) {
	tests := []struct {
		name    string
		payload domain.Payload
		want    int
	}{
		{name: "text", payload: domain.Payload{"text": "price?"}, want: 1},
		{name: "message fallback", payload: domain.Payload{"message": "price please"}, want: 1},
		{name: "empty text falls back", payload: domain.Payload{"text": "", "message": "the price"}, want: 1},
		{name: "whitespace only", payload: domain.Payload{"text": "   "}, want: 0},
		{name: "missing", payload: domain.Payload{"user": "a"}, want: 0},
		{name: "non-string", payload: domain.Payload{"text": 42}, want: 0},
		{name: "no match", payload: domain.Payload{"text": "hello"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil)
			event := &domain.Event{ID: 1, StreamID: 1, Type: domain.EventTypeChat, Payload: tt.payload}
			got := h.uc.MatchRules(context.Background(), scope, event, nil)
			if len(got) != tt.want {
				t.Fatalf("got %d actions, want %d (%v)", len(got), tt.want, got)
			}
		})
	}
}

func TestPersist_DoesNotAliasPayload(t *testing.T) {
	h := newHarness(nil)
	payload := domain.Payload{"text": "price"}

	event, err := h.uc.Persist(context.Background(), scope, "chat", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload["text"] = "mutated"
	if event.Payload["text"] != "price" {
		t.Fatalf("stored payload changed with caller map: %v", event.Payload)
	}
}

func TestPersist_RejectsEmptyType(t *testing.T) {
	h := newHarness(nil)
	if _, err := h.uc.Persist(context.Background(), scope, "", nil); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}
