package services

import (
	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/services/cart/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Cart *CartService
}

// New wires the cart application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	repo := postgres.NewCartRepository(a.Db)
	return &Services{
		Cart: NewCartService(repo, a.Logger),
	}
}
