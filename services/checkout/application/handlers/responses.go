package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/checkout/domain/models"
)

// OrderItemResponse is one purchased line.
type OrderItemResponse struct {
	Name        string `json:"name"                  example:"Item A"`
	Description string `json:"description,omitempty" example:"A very good item"`
	ImageURL    string `json:"image_url,omitempty"   example:"https://cdn.example.com/a.png"`
	Price       int64  `json:"price"                 example:"500"`
	Quantity    int    `json:"quantity"              example:"2"`
} // @name OrderItemResponse

// OrderResponse is a placed order. Amounts are in minor currency units.
type OrderResponse struct {
	ID        uuid.UUID           `json:"id"         example:"123e4567-e89b-12d3-a456-426614174000"`
	ChargeID  string              `json:"charge_id"  example:"ch_1"`
	Currency  string              `json:"currency"   example:"usd"`
	Total     int64               `json:"total"      example:"2500"`
	CreatedAt time.Time           `json:"created_at" example:"2024-01-15T10:30:00Z"`
	Items     []OrderItemResponse `json:"items"`
} // @name OrderResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"cart is empty"`
} // @name ErrorResponse

func toOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Price:       it.Price,
			Quantity:    it.Quantity,
		}
	}
	return OrderResponse{
		ID:        o.ID,
		ChargeID:  o.ChargeID,
		Currency:  o.Currency,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
}
