package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/cart/domain/models"
)

// CartRepository is the persistence interface for cart lines.
// The domain layer owns this interface; infrastructure implements it.
type CartRepository interface {
	// AddOrIncrement inserts a line with quantity 1, or increments the existing
	// line for (userID, itemID), as one atomic statement. Returns the line as
	// stored after the write.
	//
	// Errors: domain.ErrItemNotFound for an unknown item,
	// apperr.ErrWriteConflict for serialization failures,
	// apperr.ErrStoreUnavailable otherwise.
	AddOrIncrement(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
}
