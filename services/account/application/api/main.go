package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/services/account/application/handlers"
	appsvcs "github.com/ghuser/storefront/services/account/application/services"
)

// AccountRoutes registers the unauthenticated password reset endpoints.
// They are rate limited per client IP since each request can send mail.
func AccountRoutes(r chi.Router, a *app.Application) {
	h := handlers.NewPasswordResetHandler(appsvcs.New(a))
	r.Route("/account/password-reset", func(r chi.Router) {
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post("/", h.Request)
		r.Post("/confirm", h.Confirm)
	})
}
