package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/api/transport"
	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/pkg/httpcontext"
)

// RuleEvaluator previews which actions a chat line would trigger.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, scope domain.Scope, text string) ([]domain.ActionSpec, error)
}

type RuleHandler struct {
	baseHandler
	evaluator RuleEvaluator
}

func NewRuleHandler(evaluator RuleEvaluator, adapter *httpcontext.Adapter, defaults domain.Scope, logger *zap.Logger) *RuleHandler {
	return &RuleHandler{
		baseHandler: newBaseHandler(adapter, defaults, logger),
		evaluator:   evaluator,
	}
}

// @Summary Evaluate rules against a text
// @Tags rules
// @Router /rules/eval [post]
func (h *RuleHandler) Eval(ctx *fasthttp.RequestCtx) {
	var req transport.RuleEvalRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actions, err := h.evaluator.Evaluate(stdCtx, h.scope(ctx), req.Text)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if actions == nil {
		actions = []domain.ActionSpec{}
	}
	h.respondRaw(ctx, http.StatusOK, actions)
}
