package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicOrderPlaced is the Watermill topic published when an Order is created.
const TopicOrderPlaced = "order.placed"

// OrderPlacedItem mirrors one order line in the event payload.
type OrderPlacedItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// OrderPlacedEvent is published in the same transaction that stores the Order.
// Consumers subscribe via EventBus.Subscribe(ctx, events.TopicOrderPlaced).
type OrderPlacedEvent struct {
	EventID    uuid.UUID         `json:"event_id"` // unique publish-time identifier for deduplication
	Version    int               `json:"version"`  // schema version; increment on breaking changes
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	ChargeID   string            `json:"charge_id"`
	Currency   string            `json:"currency"`
	Total      int64             `json:"total"`
	Items      []OrderPlacedItem `json:"items"`
	OccurredAt time.Time         `json:"occurred_at"`
}
