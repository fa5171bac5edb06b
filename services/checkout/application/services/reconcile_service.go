package services

import (
	"context"
	"errors"
	"fmt"

	pkgcache "github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/logger"
	checkoutdomain "github.com/ghuser/storefront/services/checkout/domain"
	"github.com/ghuser/storefront/services/checkout/domain/gateways"
	"github.com/ghuser/storefront/services/checkout/domain/repositories"
	domainsvcs "github.com/ghuser/storefront/services/checkout/domain/services"
)

// ReconciliationLedger lists and clears charges the checkout could not resolve.
// Implemented by pkg/cache.CheckoutGuard.
type ReconciliationLedger interface {
	UnresolvedCharges(ctx context.Context) ([]pkgcache.UnresolvedCharge, error)
	ResolveCharge(ctx context.Context, chargeID string) error
}

// ReconcileService settles ledger entries left behind by failed compensations.
// A charge that meanwhile got its order is kept; any other charge is refunded.
type ReconcileService struct {
	ledger  ReconciliationLedger
	orders  repositories.OrderRepository
	gateway gateways.PaymentGateway
	log     logger.Logger
}

// NewReconcileService returns a ReconcileService.
func NewReconcileService(ledger ReconciliationLedger, orders repositories.OrderRepository, gateway gateways.PaymentGateway, log logger.Logger) *ReconcileService {
	return &ReconcileService{ledger: ledger, orders: orders, gateway: gateway, log: log}
}

// Sweep makes one pass over the ledger and returns how many entries it settled.
// Entries that still fail stay in the ledger for the next pass.
func (s *ReconcileService) Sweep(ctx context.Context) (int, error) {
	entries, err := s.ledger.UnresolvedCharges(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unresolved charges: %w", err)
	}

	settled := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return settled, err
		}

		_, err := s.orders.FindByChargeID(ctx, e.ChargeID)
		switch {
		case err == nil:
			s.log.InfoContext(ctx, "unresolved charge has an order, keeping it", "charge_id", e.ChargeID)
		case errors.Is(err, checkoutdomain.ErrOrderNotFound):
			if err := s.gateway.Refund(ctx, e.ChargeID, domainsvcs.RefundKey(e.ChargeID)); err != nil {
				s.log.WarnContext(ctx, "reconciliation refund failed", "charge_id", e.ChargeID, "error", err)
				continue
			}
			s.log.InfoContext(ctx, "unresolved charge refunded", "charge_id", e.ChargeID, "amount", e.Amount)
		default:
			s.log.WarnContext(ctx, "reconciliation lookup failed", "charge_id", e.ChargeID, "error", err)
			continue
		}

		if err := s.ledger.ResolveCharge(ctx, e.ChargeID); err != nil {
			s.log.WarnContext(ctx, "clear ledger entry failed", "charge_id", e.ChargeID, "error", err)
			continue
		}
		settled++
	}
	return settled, nil
}
