package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/checkout/domain/models"
)

// CartRepository is the checkout's access to cart lines.
type CartRepository interface {
	// LoadCart returns the user's lines joined with current item data.
	// A user without lines gets an empty cart, not an error.
	LoadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)

	// DeleteLines removes the purchased quantity of each line. A line whose
	// quantity grew after the purchase keeps the difference. Lines added later
	// are left alone, and absent lines are a no-op.
	DeleteLines(ctx context.Context, userID uuid.UUID, lines []models.PurchasedLine) error
}
