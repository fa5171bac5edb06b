package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/auth"
	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	appsvcs "github.com/ghuser/storefront/services/cart/application/services"
)

// CartItemResponse is returned after an item is added to the cart.
type CartItemResponse struct {
	ID       uuid.UUID `json:"id"       example:"123e4567-e89b-12d3-a456-426614174000"`
	ItemID   uuid.UUID `json:"item_id"  example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity int       `json:"quantity" example:"2"`
} // @name CartItemResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"item not found"`
} // @name ErrorResponse

// PostCartItemHandler handles POST /cart/items/{itemID} requests.
type PostCartItemHandler struct {
	svc *appsvcs.Services
}

// NewPostCartItemHandler returns a PostCartItemHandler backed by the given services.
func NewPostCartItemHandler(svc *appsvcs.Services) *PostCartItemHandler {
	return &PostCartItemHandler{svc: svc}
}

// Execute adds one unit of an item to the caller's cart.
//
//	@Summary		Add item to cart
//	@Description	Adds one unit of the item; repeated calls increment the quantity
//	@Tags			cart
//	@Produce		json
//	@Param			itemID	path		string	true	"Item ID"	format(uuid)
//	@Success		200		{object}	CartItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/cart/items/{itemID} [post]
func (h *PostCartItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	line, err := h.svc.Cart.AddItem(r.Context(), userID, itemID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, CartItemResponse{
		ID:       line.ID,
		ItemID:   line.ItemID,
		Quantity: line.Quantity,
	})
}
