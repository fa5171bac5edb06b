package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is an immutable snapshot of a cart line at purchase time.
type OrderItem struct {
	ID          uuid.UUID
	Name        string
	Description string
	ImageURL    string
	Price       int64
	Quantity    int
}

// Order is written once, after its charge succeeded. Total equals the charged
// amount and is never recomputed from the items.
type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ChargeID  string
	Currency  string
	Total     int64
	CreatedAt time.Time
	Items     []OrderItem
}

// NewOrder snapshots cart into an order backed by charge.
func NewOrder(cart *Cart, charge *Charge) *Order {
	items := make([]OrderItem, len(cart.Lines))
	for i, l := range cart.Lines {
		items[i] = OrderItem{
			ID:          uuid.New(),
			Name:        l.Name,
			Description: l.Description,
			ImageURL:    l.ImageURL,
			Price:       l.Price,
			Quantity:    l.Quantity,
		}
	}
	return &Order{
		ID:        uuid.New(),
		UserID:    cart.UserID,
		ChargeID:  charge.ID,
		Currency:  charge.Currency,
		Total:     charge.Amount,
		CreatedAt: time.Now().UTC(),
		Items:     items,
	}
}
