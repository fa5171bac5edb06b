package models

import "github.com/google/uuid"

// CartLine is a cart item joined with the catalog data priced at load time.
type CartLine struct {
	CartItemID  uuid.UUID
	ItemID      uuid.UUID
	Name        string
	Description string
	ImageURL    string
	Price       int64 // minor currency units
	Quantity    int
}

// Subtotal returns Price * Quantity.
func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Cart is the checkout's view of a user's cart at one instant.
type Cart struct {
	UserID uuid.UUID
	Lines  []CartLine
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// PurchasedLine is the quantity of one cart line that an order paid for.
type PurchasedLine struct {
	CartItemID uuid.UUID `json:"cart_item_id"`
	Quantity   int       `json:"quantity"`
}

// Purchased returns every line with the quantity read at load time, in cart order.
func (c *Cart) Purchased() []PurchasedLine {
	lines := make([]PurchasedLine, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = PurchasedLine{CartItemID: l.CartItemID, Quantity: l.Quantity}
	}
	return lines
}
