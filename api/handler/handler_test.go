package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/internal/infrastructure/monitor"
	"github.com/fastygo/liveassist/pkg/httpcontext"
)

var defaults = domain.Scope{OwnerID: 1, StreamID: 1}

type ingestCall struct {
	scope     domain.Scope
	eventType string
	payload   domain.Payload
}

type fakeIngestor struct {
	calls []ingestCall
	err   error
}

func (f *fakeIngestor) Ingest(_ context.Context, scope domain.Scope, eventType string, payload domain.Payload) (*domain.Event, error) {
	f.calls = append(f.calls, ingestCall{scope: scope, eventType: eventType, payload: payload})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: 1, StreamID: scope.StreamID, Type: eventType, Payload: payload}, nil
}

type fakeEvaluator struct {
	actions []domain.ActionSpec
	scope   domain.Scope
	err     error
}

func (f *fakeEvaluator) Evaluate(_ context.Context, scope domain.Scope, _ string) ([]domain.ActionSpec, error) {
	f.scope = scope
	return f.actions, f.err
}

func post(body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.Header.SetContentType("application/json")
	ctx.Request.SetBodyString(body)
	return ctx
}

func TestEventHandler_Ingest(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCalls  int
	}{
		{name: "accepted", body: `{"type":"chat","payload":{"text":"hi"}}`, wantStatus: fasthttp.StatusNoContent, wantCalls: 1},
		{name: "persist failure", body: `{"type":"chat","payload":{"text":"hi"}}`, err: domain.WrapError(domain.ErrCodeInternal, domain.ErrPersistEvent.Message, errors.New("db down")), wantStatus: fasthttp.StatusInternalServerError, wantCalls: 1},
		{name: "malformed", body: `{"type":`, wantStatus: fasthttp.StatusBadRequest},
		{name: "missing type", body: `{"payload":{}}`, wantStatus: fasthttp.StatusBadRequest},
		{name: "payload omitted", body: `{"type":"follow"}`, wantStatus: fasthttp.StatusNoContent, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &fakeIngestor{err: tt.err}
			h := NewEventHandler(ing, httpcontext.NewAdapter(time.Second), defaults, nil)
			ctx := post(tt.body)

			h.Ingest(ctx)

			if ctx.Response.StatusCode() != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", ctx.Response.StatusCode(), tt.wantStatus, ctx.Response.Body())
			}
			if len(ing.calls) != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", len(ing.calls), tt.wantCalls)
			}
			if tt.wantStatus == fasthttp.StatusNoContent && len(ctx.Response.Body()) != 0 {
				t.Fatalf("204 must have empty body, got %q", ctx.Response.Body())
			}
		})
	}
}

func TestEventHandler_InternalErrorHidesCause(t *testing.T) {
	ing := &fakeIngestor{err: domain.WrapError(domain.ErrCodeInternal, domain.ErrPersistEvent.Message, errors.New("password=hunter2"))}
	h := NewEventHandler(ing, nil, defaults, nil)
	ctx := post(`{"type":"chat","payload":{}}`)

	h.Ingest(ctx)

	var body map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "failed to record event" || body["code"] != "INTERNAL" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestEventHandler_Scope(t *testing.T) {
	ing := &fakeIngestor{}
	h := NewEventHandler(ing, nil, defaults, nil)

	ctx := post(`{"type":"chat","payload":{}}`)
	ctx.Request.Header.Set("X-Owner-ID", "99")
	h.Ingest(ctx)

	ctx = post(`{"type":"chat","payload":{}}`)
	httpcontext.SetScope(ctx, 7, 0)
	h.Ingest(ctx)

	if got := ing.calls[0].scope; got != defaults {
		t.Fatalf("client headers must not change scope, got %+v", got)
	}
	if got := ing.calls[1].scope; got != (domain.Scope{OwnerID: 7, StreamID: 1}) {
		t.Fatalf("verified scope not applied, got %+v", got)
	}
}

func TestRuleHandler_Eval(t *testing.T) {
	eval := &fakeEvaluator{actions: []domain.ActionSpec{{"action": "reply", "text": "Price is 1990"}}}
	h := NewRuleHandler(eval, nil, defaults, nil)
	ctx := post(`{"text":"price?"}`)

	h.Eval(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	var got []map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["action"] != "reply" || got[0]["text"] != "Price is 1990" {
		t.Fatalf("unexpected body %s", ctx.Response.Body())
	}
	if eval.scope != defaults {
		t.Fatalf("scope = %+v", eval.scope)
	}
}

func TestRuleHandler_EmptyResultIsArray(t *testing.T) {
	h := NewRuleHandler(&fakeEvaluator{}, nil, defaults, nil)
	ctx := post(`{"text":"hello"}`)

	h.Eval(ctx)

	if string(ctx.Response.Body()) != "[]" {
		t.Fatalf("body = %s, want []", ctx.Response.Body())
	}
}

func TestRuleHandler_Invalid(t *testing.T) {
	h := NewRuleHandler(&fakeEvaluator{}, nil, defaults, nil)
	ctx := post(`{"text":""}`)

	h.Eval(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		status monitor.Status
		want   int
	}{
		{name: "healthy", status: monitor.Status{Healthy: true}, want: fasthttp.StatusOK},
		{name: "degraded", status: monitor.Status{Healthy: false}, want: fasthttp.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(staticStatus(tt.status), nil, nil)
			ctx := &fasthttp.RequestCtx{}
			h.Check(ctx)
			if ctx.Response.StatusCode() != tt.want {
				t.Fatalf("status = %d, want %d", ctx.Response.StatusCode(), tt.want)
			}
		})
	}
}
