package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/checkout/domain/models"
)

// OrderRepository is the persistence interface for the write-once Order aggregate.
type OrderRepository interface {
	// Create stores the order, its items and an order.placed event atomically.
	// Returns domain.ErrOrderExists when an order already references the charge.
	Create(ctx context.Context, order *models.Order) error

	// GetByID returns the user's order. Returns domain.ErrOrderNotFound if
	// absent or owned by someone else.
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)

	// FindByChargeID returns the order paid by chargeID, or domain.ErrOrderNotFound.
	FindByChargeID(ctx context.Context, chargeID string) (*models.Order, error)
}
