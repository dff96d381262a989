package handler

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/api/transport"
	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/pkg/httpcontext"
)

type baseHandler struct {
	adapter  *httpcontext.Adapter
	defaults domain.Scope
	logger   *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, defaults domain.Scope, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, defaults: defaults, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// scope resolves the caller scope: verified token claims first, configured
// defaults for anything missing.
func (h baseHandler) scope(ctx *fasthttp.RequestCtx) domain.Scope {
	owner, stream := httpcontext.Scope(ctx)
	return domain.Scope{OwnerID: owner, StreamID: stream}.WithDefaults(h.defaults)
}

func (h baseHandler) respondRaw(ctx *fasthttp.RequestCtx, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	h.respondRaw(ctx, status, payload)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data any) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondNoContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusNoContent)
	ctx.ResetBody()
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	msg := err.Error()
	// Internal details stay in the logs.
	if status == http.StatusInternalServerError {
		msg = "internal error"
		var dErr *domain.Error
		if errors.As(err, &dErr) {
			msg = dErr.Message
		}
	}
	h.respondJSON(ctx, status, transport.NewError(code, msg, map[string]string{
		"request_id": httpcontext.RequestID(ctx),
	}))
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, err error) {
	h.respondError(ctx, domain.WrapError(domain.ErrCodeInvalid, err.Error(), nil))
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeUnavailable):
		return http.StatusServiceUnavailable, string(domain.ErrCodeUnavailable)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
