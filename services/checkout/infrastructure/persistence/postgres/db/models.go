package db

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ChargeID  string
	Currency  string
	Total     int64
	CreatedAt time.Time
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Position    int32
	Name        string
	Description string
	ImageUrl    string
	Price       int64
	Quantity    int32
}
