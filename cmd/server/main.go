package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/liveassist/api/handler"
	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/internal/config"
	"github.com/fastygo/liveassist/internal/gateway"
	"github.com/fastygo/liveassist/internal/infrastructure/buffer"
	"github.com/fastygo/liveassist/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/liveassist/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/liveassist/internal/infrastructure/redis"
	"github.com/fastygo/liveassist/internal/middleware"
	"github.com/fastygo/liveassist/internal/router"
	"github.com/fastygo/liveassist/internal/services"
	"github.com/fastygo/liveassist/internal/services/lifecycle"
	"github.com/fastygo/liveassist/pkg/httpcontext"
	"github.com/fastygo/liveassist/pkg/logger"
	"github.com/fastygo/liveassist/repository/postgres"
	redisRepo "github.com/fastygo/liveassist/repository/redis"
	"github.com/fastygo/liveassist/usecase/dispatch"
	"github.com/fastygo/liveassist/usecase/ingest"
	"github.com/fastygo/liveassist/usecase/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.SignalContext(context.Background())
	defer cancel()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	if redisClient != nil {
		manager.RegisterCloser("redis", redisClient.Close)
	}

	// Gateway candidates and the optional spool.
	resolver, err := gateway.ParseEndpoints(cfg.Gateway.Endpoints, nil)
	if err != nil {
		zapLogger.Fatal("invalid gateway endpoints", zap.Error(err))
	}
	manager.RegisterCloser("gateway_endpoints", resolver.Close)
	if len(resolver) == 0 {
		zapLogger.Warn("no gateway endpoints configured, broadcasts are disabled")
	}

	var (
		spoolStore *buffer.Store
		spooler    gateway.Spooler
	)
	if cfg.Spool.Enabled {
		spoolStore, err = buffer.Open(cfg.Spool.Path, "spool")
		if err != nil {
			zapLogger.Fatal("failed to open spool", zap.Error(err))
		}
		manager.RegisterCloser("spool", spoolStore.Close)
		spooler = services.NewSpoolBridge(spoolStore)
	}

	forwarder := gateway.NewForwarder(resolver, spooler, zapLogger.Named("gateway"), gateway.Config{
		AttemptTimeout: cfg.Gateway.AttemptTimeout,
		Budget:         cfg.Gateway.DeliveryBudget,
		HedgeDelay:     cfg.Gateway.HedgeDelay,
		Breaker: gateway.BreakerConfig{
			Failures: uint32(cfg.Gateway.BreakerFailures),
			Cooldown: cfg.Gateway.BreakerCooldown,
		},
	})

	var spoolProcessor *services.SpoolProcessor
	if spoolStore != nil {
		spoolProcessor, err = services.NewSpoolProcessor(spoolStore, forwarder, zapLogger.Named("spool"), services.ProcessorConfig{
			Schedule:   cfg.Spool.Schedule,
			Interval:   cfg.Spool.SyncInterval,
			BatchSize:  cfg.Spool.BatchSize,
			MaxRetries: cfg.Spool.MaxRetry,
			Retention:  time.Duration(cfg.Spool.RetentionHours) * time.Hour,
		})
		if err != nil {
			zapLogger.Fatal("failed to schedule spool redelivery", zap.Error(err))
		}
		spoolProcessor.Start()
		manager.Register("spool_processor", func(ctx context.Context) error {
			spoolProcessor.Stop(ctx)
			return nil
		})
	}

	mon := monitor.New(cfg.Context.MonitorInterval, zapLogger.Named("monitor")).
		WithPostgres(pool).
		WithRedis(redisClient).
		WithSpool(spoolProcessor.Size)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	// Repositories and use cases.
	eventRepo := postgres.NewEventRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	ruleRepo := redisRepo.NewRuleCache(redisClient, postgres.NewRuleRepository(pool), cfg.Rules.CacheTTL, zapLogger)

	dispatcher := dispatch.New(forwarder, productRepo, zapLogger.Named("dispatch"))
	ingestUseCase := ingest.New(eventRepo, ruleRepo, forwarder, dispatcher, zapLogger.Named("ingest"), ingest.Config{
		Deadline: cfg.Ingest.Deadline,
	})
	evaluator := rules.NewEvaluator(ruleRepo, zapLogger.Named("rules"))

	defaults := domain.Scope{
		OwnerID:  cfg.Tenant.DefaultOwnerID,
		StreamID: cfg.Tenant.DefaultStreamID,
	}
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Event:  apiHandler.NewEventHandler(ingestUseCase, ctxAdapter, defaults, zapLogger),
		Rule:   apiHandler.NewRuleHandler(evaluator, ctxAdapter, defaults, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	ownerScope := middleware.OwnerScope(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, ownerScope, router.Options{EnableMetrics: cfg.HTTP.EnableMetrics})

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.Strings("gateway_endpoints", endpointNames(resolver)),
			zap.Bool("spool", cfg.Spool.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func endpointNames(r gateway.StaticResolver) []string {
	names := make([]string, 0, len(r))
	for _, ep := range r {
		names = append(names, ep.Name())
	}
	return names
}
