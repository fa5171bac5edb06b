package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/auth"
	"github.com/ghuser/storefront/services/cart/application/handlers"
	appsvcs "github.com/ghuser/storefront/services/cart/application/services"
)

// CartRoutes registers cart endpoints on the provided chi router.
func CartRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.SessionStore, a.Logger))
		r.Route("/cart", func(r chi.Router) {
			r.Post("/items/{itemID}", handlers.NewPostCartItemHandler(svcs).Execute)
		})
	})
}
