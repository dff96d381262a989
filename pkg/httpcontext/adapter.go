package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/liveassist/pkg/logger"
)

// User value keys set by the auth middleware. They are never read from
// client headers.
const (
	UserValueOwnerID  = "liveassist.owner_id"
	UserValueStreamID = "liveassist.stream_id"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context bounded by the adapter timeout and tagged with the
// request ID, which is echoed in the X-Request-ID response header.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	stdCtx = appLogger.ContextWithRequestID(stdCtx, RequestID(ctx))
	return stdCtx, cancel
}

// RequestID returns the request ID for ctx, generating and caching one when
// the client sent none.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue("liveassist.request_id").(string); ok {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue("liveassist.request_id", id)
	ctx.Response.Header.Set("X-Request-ID", id)
	return id
}

// SetScope records the verified owner and stream for the request.
func SetScope(ctx *fasthttp.RequestCtx, ownerID, streamID int64) {
	if ownerID > 0 {
		ctx.SetUserValue(UserValueOwnerID, ownerID)
	}
	if streamID > 0 {
		ctx.SetUserValue(UserValueStreamID, streamID)
	}
}

// Scope returns the owner and stream set by SetScope; zero when unset.
func Scope(ctx *fasthttp.RequestCtx) (ownerID, streamID int64) {
	ownerID, _ = ctx.UserValue(UserValueOwnerID).(int64)
	streamID, _ = ctx.UserValue(UserValueStreamID).(int64)
	return ownerID, streamID
}
