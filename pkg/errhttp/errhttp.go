// Package errhttp maps domain sentinel errors to HTTP status codes and fixed
// public messages. The wrapped error text never reaches the client.
// Add an entry to mappings for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/httpx"
	accountdomain "github.com/ghuser/storefront/services/account/domain"
	cartdomain "github.com/ghuser/storefront/services/cart/domain"
	checkoutdomain "github.com/ghuser/storefront/services/checkout/domain"
)

type mapping struct {
	err     error
	status  int
	message string
}

// mappings is ordered: specific sentinels come before the shared kinds they wrap.
var mappings = []mapping{
	{apperr.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{cartdomain.ErrItemNotFound, http.StatusNotFound, "item not found"},
	{checkoutdomain.ErrOrderNotFound, http.StatusNotFound, "order not found"},
	{apperr.ErrNotFound, http.StatusNotFound, "not found"},
	{checkoutdomain.ErrEmptyCart, http.StatusUnprocessableEntity, "cart is empty"},
	{checkoutdomain.ErrPaymentDeclined, http.StatusPaymentRequired, "payment declined"},
	{checkoutdomain.ErrPaymentGatewayUnavailable, http.StatusServiceUnavailable, "payment service unavailable, try again later"},
	{checkoutdomain.ErrChargeMismatch, http.StatusBadGateway, "payment could not be confirmed, no order was placed"},
	{accountdomain.ErrPasswordMismatch, http.StatusUnprocessableEntity, "passwords do not match"},
	{accountdomain.ErrPolicyViolation, http.StatusUnprocessableEntity, "password does not meet requirements"},
	{accountdomain.ErrInvalidToken, http.StatusBadRequest, "reset link is invalid or has already been used"},
	{accountdomain.ErrTokenExpired, http.StatusBadRequest, "reset link has expired"},
	{apperr.ErrWriteConflict, http.StatusConflict, "request conflicted with a concurrent update, try again"},
	{apperr.ErrStoreUnavailable, http.StatusServiceUnavailable, "service temporarily unavailable"},
}

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	status, message := Map(err)
	httpx.JSONError(w, status, message)
}

// Map returns the status code and public message for err.
func Map(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
