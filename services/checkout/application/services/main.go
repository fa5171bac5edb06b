package services

import (
	"github.com/ghuser/storefront/pkg/app"
	pkgcache "github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/services/checkout/application/workflows"
	"github.com/ghuser/storefront/services/checkout/infrastructure/payment"
	"github.com/ghuser/storefront/services/checkout/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Checkout  *CheckoutService
	Orders    *OrderService
	Reconcile *ReconcileService
}

// New wires the checkout application services with infrastructure from the
// Application container.
func New(a *app.Application) *Services {
	cfg := a.Config
	carts := postgres.NewCartRepository(a.Db)
	orders := postgres.NewOrderRepository(a.Db, a.EventBus)
	gateway := payment.NewStripeGateway(payment.Config{
		BaseURL: cfg.PaymentGatewayURL,
		APIKey:  cfg.PaymentGatewayKey,
		Timeout: cfg.PaymentGatewayTimeout,
	}, a.Logger)
	guard := pkgcache.NewCheckoutGuard(a.Redis, cfg.CheckoutLockTTL)

	deps := CheckoutDeps{
		Carts:    carts,
		Orders:   orders,
		Gateway:  gateway,
		Guard:    guard,
		Currency: cfg.PaymentCurrency,
		Logger:   a.Logger,
	}
	if a.TemporalClient != nil {
		deps.Clears = workflows.NewScheduler(a.TemporalClient)
	}

	return &Services{
		Checkout:  NewCheckoutService(deps),
		Orders:    NewOrderService(orders, pkgcache.NewOrderCache(a.Redis), a.Logger),
		Reconcile: NewReconcileService(guard, orders, gateway, a.Logger),
	}
}
