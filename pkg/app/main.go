// Package app defines the dependency container handed to every bounded context.
package app

import (
	"github.com/ghuser/storefront/pkg/auth"
	"github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/workflows"
)

// Application holds shared infrastructure dependencies for all services.
// Pass it to each service's Routes function during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler. Use the *Context
// methods so trace_id, span_id and request_id are injected:
//
//	app.Logger.InfoContext(ctx, "order placed", "order_id", id, "charge_id", chargeID)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	TemporalClient *workflows.TemporalClient
	SessionStore   *auth.RedisStore // nil in the worker process
}
