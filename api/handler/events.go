package handler

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/api/transport"
	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/pkg/httpcontext"
)

// EventIngestor is the ingestion pipeline behind POST /events/ingest.
type EventIngestor interface {
	Ingest(ctx context.Context, scope domain.Scope, eventType string, payload domain.Payload) (*domain.Event, error)
}

type EventHandler struct {
	baseHandler
	ingestor EventIngestor
}

func NewEventHandler(ingestor EventIngestor, adapter *httpcontext.Adapter, defaults domain.Scope, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		baseHandler: newBaseHandler(adapter, defaults, logger),
		ingestor:    ingestor,
	}
}

// @Summary Ingest a live event
// @Tags events
// @Router /events/ingest [post]
func (h *EventHandler) Ingest(ctx *fasthttp.RequestCtx) {
	var req transport.IngestRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if _, err := h.ingestor.Ingest(stdCtx, h.scope(ctx), req.Type, domain.Payload(req.EventPayload())); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}
