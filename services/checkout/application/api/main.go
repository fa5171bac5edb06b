package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/auth"
	"github.com/ghuser/storefront/services/checkout/application/handlers"
	appsvcs "github.com/ghuser/storefront/services/checkout/application/services"
)

// CheckoutRoutes registers checkout and order endpoints on the provided chi router.
func CheckoutRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.SessionStore, a.Logger))
		r.Post("/checkout", handlers.NewPostCheckoutHandler(svcs).Execute)
		r.Get("/orders/{orderID}", handlers.NewGetOrderHandler(svcs).Execute)
	})
}
