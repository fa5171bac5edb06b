package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/storefront/docs/swagger"
	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/auth"
	"github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/telemetry"
	"github.com/ghuser/storefront/pkg/workflows"
	accountApi "github.com/ghuser/storefront/services/account/application/api"
	cartApi "github.com/ghuser/storefront/services/cart/application/api"
	checkoutApi "github.com/ghuser/storefront/services/checkout/application/api"
	accountEvents "github.com/ghuser/storefront/services/account/domain/events"
	checkoutEvents "github.com/ghuser/storefront/services/checkout/domain/events"
)

const shutdownGrace = 30 * time.Second

// @title					Storefront API
// @version				1.0
// @description			Cart, checkout and password reset endpoints of the storefront.
// @contact.name			API Support
// @contact.email			support@storefront.local
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		return err
	}

	log := logger.New(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBusWithForwarder(cfg, log)
	if err != nil {
		return fmt.Errorf("setup event bus: %w", err)
	}
	defer eventBus.Close() //nolint:errcheck

	for _, topic := range []string{checkoutEvents.TopicOrderPlaced, accountEvents.TopicPasswordResetRequested} {
		if err := eventBus.InitializeTopic(topic); err != nil {
			return err
		}
	}
	if err := eventBus.StartForwarder(ctx); err != nil {
		return err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	temporalClient := connectTemporal(ctx, cfg, log)
	if temporalClient != nil {
		defer temporalClient.Close()
	}

	sessionStore := auth.NewSessionStore(
		redisClient.Client(),
		[]byte(cfg.SessionAuthKey),
		[]byte(cfg.SessionEncryptionKey),
		cfg.Environment == config.EnvProduction,
	)

	a := &app.Application{
		Config:         cfg,
		Db:             pool,
		Logger:         log,
		EventBus:       eventBus,
		Redis:          redisClient,
		TemporalClient: temporalClient,
		SessionStore:   sessionStore,
	}

	checks := httpx.HealthChecks{Database: pool, Redis: redisClient, EventBus: eventBus}
	if temporalClient != nil {
		checks.Workflows = temporalClient
	}

	srv := httpx.NewServer(":8080", newRouter(a, checks, metricsHandler))
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// connectTemporal returns nil when Temporal is unreachable. Checkout then
// leaves a failed cart clear to the logs instead of a background retry.
func connectTemporal(ctx context.Context, cfg *config.Config, log logger.Logger) *workflows.TemporalClient {
	tc, err := workflows.Dial(ctx, workflows.OptionsFromConfig(cfg), log)
	if err != nil {
		log.Warn("temporal unavailable, failed cart clears will not be retried", "error", err)
		return nil
	}
	return tc
}

func newRouter(a *app.Application, checks httpx.HealthChecks, metrics http.Handler) http.Handler {
	cfg := a.Config
	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		httpx.Middleware{
			Recovery: logger.Recovery(a.Logger),
			Sentry:   telemetry.SentryMiddleware(),
			Tracing:  otelhttp.NewMiddleware(cfg.ServiceName),
			Logger:   logger.Middleware(a.Logger),
		},
	)

	r.Get("/health", httpx.HealthHandler(checks))
	r.Get("/metrics", metrics.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, a)
	})
	return r
}

// registerRoutes mounts all service routes under /api. Each bounded context
// applies RequireAuth to the routes that need a session.
func registerRoutes(r chi.Router, a *app.Application) {
	cartApi.CartRoutes(r, a)
	checkoutApi.CheckoutRoutes(r, a)
	accountApi.AccountRoutes(r, a)
}
