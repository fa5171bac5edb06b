package db

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ItemID    uuid.UUID
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}
