package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a user's cart. At most one line exists per
// (UserID, ItemID); adding the same item again increments Quantity.
type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ItemID    uuid.UUID
	Quantity  int // always >= 1
	CreatedAt time.Time
	UpdatedAt time.Time
}
