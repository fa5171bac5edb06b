package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/telemetry"
	"github.com/ghuser/storefront/pkg/workflows"
	accountServices "github.com/ghuser/storefront/services/account/application/services"
	accountEvents "github.com/ghuser/storefront/services/account/domain/events"
	checkoutServices "github.com/ghuser/storefront/services/checkout/application/services"
	checkoutWorkflows "github.com/ghuser/storefront/services/checkout/application/workflows"
	checkoutEvents "github.com/ghuser/storefront/services/checkout/domain/events"
	checkoutPostgres "github.com/ghuser/storefront/services/checkout/infrastructure/persistence/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
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

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
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

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		return fmt.Errorf("setup event bus: %w", err)
	}
	// Close waits for in-flight handlers before returning.
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck

	a := &app.Application{
		Config:   cfg,
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}

	if tc, err := workflows.Dial(ctx, workflows.OptionsFromConfig(cfg), log); err != nil {
		log.Warn("temporal unavailable, cart clear workflows will not run", "error", err)
	} else {
		defer tc.Close()
		a.TemporalClient = tc
		stopWorker, err := startClearCartWorker(tc, pool)
		if err != nil {
			return err
		}
		defer stopWorker()
		log.Info("temporal worker started", "task_queue", cfg.TemporalTaskQueue)
	}

	if err := registerSubscribers(ctx, a); err != nil {
		return fmt.Errorf("register subscribers: %w", err)
	}

	go runReconciliation(ctx, a, cfg.ReconcileInterval)

	<-ctx.Done()
	log.Info("shutting down worker...")
	return nil
}

func startClearCartWorker(tc *workflows.TemporalClient, db *database.Database) (stop func(), err error) {
	w := tc.NewWorker()
	checkoutWorkflows.Register(w, checkoutPostgres.NewCartRepository(db))
	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("start temporal worker: %w", err)
	}
	return w.Stop, nil
}

// registerSubscribers wires all domain event handlers.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	handlers := map[string]func(context.Context, *message.Message) error{
		checkoutEvents.TopicOrderPlaced:           handleOrderPlaced(a),
		accountEvents.TopicPasswordResetRequested: handlePasswordResetRequested(a),
	}

	topics := make([]string, 0, len(handlers))
	for topic, handler := range handlers {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handler)
		if err != nil {
			return err
		}

		// Drain subscriber errors in background so the channel never blocks.
		go func() {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}()
		topics = append(topics, topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}

// handlePasswordResetRequested mails the reset link. A failed send is
// returned so the message is redelivered.
func handlePasswordResetRequested(a *app.Application) func(context.Context, *message.Message) error {
	resetEmail := accountServices.New(a).ResetEmail
	return func(ctx context.Context, msg *message.Message) error {
		var evt accountEvents.PasswordResetRequestedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		return resetEmail.Deliver(ctx, evt)
	}
}

// handleOrderPlaced warms the order read model so GET /orders/{id} is served
// from Redis. Redelivery overwrites the same key.
func handleOrderPlaced(a *app.Application) func(context.Context, *message.Message) error {
	orderCache := cache.NewOrderCache(a.Redis)
	return func(ctx context.Context, msg *message.Message) error {
		var evt checkoutEvents.OrderPlacedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}

		if err := orderCache.Set(ctx, cachedOrderFromEvent(evt)); err != nil {
			// Cache warming is best-effort; log but do not fail the handler.
			a.Logger.WarnContext(ctx, "cache warm failed for order.placed",
				"order_id", evt.OrderID, "error", err)
		} else {
			a.Logger.InfoContext(ctx, "cache warmed",
				"order_id", evt.OrderID, "user_id", evt.UserID)
		}

		return nil
	}
}

func cachedOrderFromEvent(evt checkoutEvents.OrderPlacedEvent) *cache.CachedOrder {
	items := make([]cache.CachedOrderItem, len(evt.Items))
	for i, it := range evt.Items {
		items[i] = cache.CachedOrderItem{
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Price:       it.Price,
			Quantity:    it.Quantity,
		}
	}
	return &cache.CachedOrder{
		ID:        evt.OrderID,
		UserID:    evt.UserID,
		ChargeID:  evt.ChargeID,
		Currency:  evt.Currency,
		Total:     evt.Total,
		CreatedAt: evt.OccurredAt,
		Items:     items,
	}
}

// runReconciliation refunds charges that never became orders. Runs until ctx
// is cancelled.
func runReconciliation(ctx context.Context, a *app.Application, interval time.Duration) {
	reconcile := checkoutServices.New(a).Reconcile

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("reconciliation sweep shutting down")
			return
		case <-ticker.C:
			settled, err := reconcile.Sweep(ctx)
			if err != nil {
				a.Logger.WarnContext(ctx, "reconciliation sweep failed", "error", err, "settled", settled)
				continue
			}
			if settled > 0 {
				a.Logger.InfoContext(ctx, "reconciliation sweep settled charges", "settled", settled)
			}
		}
	}
}
