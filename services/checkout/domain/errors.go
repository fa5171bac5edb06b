package domain

import (
	"errors"
	"fmt"

	"github.com/ghuser/storefront/pkg/apperr"
)

// Sentinel errors for the checkout domain. Use errors.Is() to check these.
var (
	// ErrEmptyCart indicates checkout was attempted with no cart lines. No charge is made.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrPaymentDeclined indicates the gateway refused the charge.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentGatewayUnavailable indicates the gateway could not be reached,
	// answered with a server error, or its circuit breaker is open.
	ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrOrderNotFound indicates no order with the given id belongs to the user.
	// It matches apperr.ErrNotFound.
	ErrOrderNotFound = fmt.Errorf("order %w", apperr.ErrNotFound)
)

// ErrChargeMismatch indicates the gateway captured an amount other than the
// cart total. The charge is compensated like any failed order.
var ErrChargeMismatch = errors.New("charged amount does not match cart total")

// ErrOrderExists indicates an order already references the charge id.
// The checkout treats it as proof that the charge is resolved.
var ErrOrderExists = errors.New("order already exists for charge")
