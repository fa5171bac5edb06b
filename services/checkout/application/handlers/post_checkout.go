package handlers

import (
	"net/http"

	"github.com/ghuser/storefront/pkg/auth"
	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	pkgvalidator "github.com/ghuser/storefront/pkg/validator"
	appsvcs "github.com/ghuser/storefront/services/checkout/application/services"
)

// CheckoutRequest is the request body for POST /checkout.
type CheckoutRequest struct {
	PaymentToken string `json:"payment_token" validate:"required,max=255" example:"tok_visa"`
} // @name CheckoutRequest

// PostCheckoutHandler handles POST /checkout requests.
type PostCheckoutHandler struct {
	svc *appsvcs.Services
}

// NewPostCheckoutHandler returns a PostCheckoutHandler backed by the given services.
func NewPostCheckoutHandler(svc *appsvcs.Services) *PostCheckoutHandler {
	return &PostCheckoutHandler{svc: svc}
}

// Execute purchases the caller's cart.
//
//	@Summary		Check out
//	@Description	Charges the cart total once and turns the cart into an order
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CheckoutRequest	true	"Payment details"
//	@Success		201		{object}	OrderResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		402		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/checkout [post]
func (h *PostCheckoutHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[CheckoutRequest](w, r)
	if !ok {
		return
	}

	order, err := h.svc.Checkout.Checkout(r.Context(), userID, req.PaymentToken)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toOrderResponse(order))
}
