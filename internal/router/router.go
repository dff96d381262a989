package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	apiHandler "github.com/fastygo/liveassist/api/handler"
)

type Handlers struct {
	Event  *apiHandler.EventHandler
	Rule   *apiHandler.RuleHandler
	Health *apiHandler.HealthHandler
}

type Options struct {
	EnableMetrics bool
}

// New builds the route table. ownerScope guards the pipeline endpoints.
func New(handlers Handlers, ownerScope func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	if ownerScope == nil {
		ownerScope = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if opts.EnableMetrics {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	}

	r.POST("/events/ingest", ownerScope(handlers.Event.Ingest))
	r.POST("/rules/eval", ownerScope(handlers.Rule.Eval))

	return r
}
