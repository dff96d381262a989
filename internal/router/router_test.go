package router

import (
	"context"
	"strings"
	"testing"

	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/liveassist/api/handler"
	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/internal/infrastructure/monitor"
)

type okIngestor struct{ calls int }

func (o *okIngestor) Ingest(_ context.Context, scope domain.Scope, eventType string, payload domain.Payload) (*domain.Event, error) {
	o.calls++
	return &domain.Event{ID: 1, StreamID: scope.StreamID, Type: eventType, Payload: payload}, nil
}

type noRules struct{}

func (noRules) Evaluate(context.Context, domain.Scope, string) ([]domain.ActionSpec, error) {
	return nil, nil
}

type healthy struct{}

func (healthy) GetStatus() monitor.Status { return monitor.Status{Healthy: true} }

func serve(h fasthttp.RequestHandler, method, path, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	ctx.Request.SetBodyString(body)
	h(ctx)
	return ctx
}

func TestRoutes(t *testing.T) {
	ing := &okIngestor{}
	guarded := 0
	scope := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			guarded++
			next(ctx)
		}
	}
	defaults := domain.Scope{OwnerID: 1, StreamID: 1}
	r := New(Handlers{
		Event:  apiHandler.NewEventHandler(ing, nil, defaults, nil),
		Rule:   apiHandler.NewRuleHandler(noRules{}, nil, defaults, nil),
		Health: apiHandler.NewHealthHandler(healthy{}, nil, nil),
	}, scope, Options{EnableMetrics: true})
	h := r.Handler

	if ctx := serve(h, "POST", "/events/ingest", `{"type":"gift","payload":{"amount":5}}`); ctx.Response.StatusCode() != fasthttp.StatusNoContent {
		t.Fatalf("ingest status = %d", ctx.Response.StatusCode())
	}
	if ctx := serve(h, "POST", "/rules/eval", `{"text":"x"}`); ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("eval status = %d", ctx.Response.StatusCode())
	}
	if ctx := serve(h, "GET", "/health", ""); ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("health status = %d", ctx.Response.StatusCode())
	}
	ctx := serve(h, "GET", "/metrics", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK || !strings.Contains(string(ctx.Response.Body()), "go_goroutines") {
		t.Fatalf("metrics not exposed: %d", ctx.Response.StatusCode())
	}
	if ctx := serve(h, "GET", "/events/ingest", ""); ctx.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("GET ingest status = %d", ctx.Response.StatusCode())
	}

	if guarded != 2 || ing.calls != 1 {
		t.Fatalf("guarded = %d, ingest calls = %d", guarded, ing.calls)
	}
}
