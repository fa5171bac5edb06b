// Package gateways declares the external systems the checkout depends on.
package gateways

import (
	"context"

	"github.com/ghuser/storefront/services/checkout/domain/models"
)

// PaymentGateway captures and refunds card payments.
//
// Charge errors: domain.ErrPaymentDeclined when the card or token is refused,
// domain.ErrPaymentGatewayUnavailable for outages. Refund returns
// domain.ErrPaymentGatewayUnavailable when the refund could not be confirmed.
type PaymentGateway interface {
	Charge(ctx context.Context, req models.ChargeRequest) (*models.Charge, error)
	Refund(ctx context.Context, chargeID, idempotencyKey string) error
}
