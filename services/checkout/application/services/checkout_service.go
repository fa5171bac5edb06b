package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/storefront/pkg/apperr"
	pkgcache "github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/retry"
	"github.com/ghuser/storefront/pkg/telemetry"
	checkoutdomain "github.com/ghuser/storefront/services/checkout/domain"
	"github.com/ghuser/storefront/services/checkout/domain/gateways"
	"github.com/ghuser/storefront/services/checkout/domain/models"
	"github.com/ghuser/storefront/services/checkout/domain/repositories"
	domainsvcs "github.com/ghuser/storefront/services/checkout/domain/services"
)

const instrumentationName = "github.com/ghuser/storefront/services/checkout"

// Checkout outcomes recorded on the checkout.outcomes counter.
const (
	outcomeOrdered    = "ordered"
	outcomeEmpty      = "empty_cart"
	outcomeDeclined   = "declined"
	outcomeRefunded   = "refunded"
	outcomeUnresolved = "unresolved"
	outcomeFailed     = "failed"
)

// CheckoutGuard is the cross-process state the saga needs. Implemented by
// pkg/cache.CheckoutGuard.
type CheckoutGuard interface {
	Lock(ctx context.Context, userID uuid.UUID) (func(context.Context) error, error)
	Epoch(ctx context.Context, userID uuid.UUID) (int64, error)
	AdvanceEpoch(ctx context.Context, userID uuid.UUID) error
	RecordUnresolved(ctx context.Context, entry pkgcache.UnresolvedCharge) error
}

// CartClearScheduler retries a cart clear in the background.
type CartClearScheduler interface {
	ScheduleClear(ctx context.Context, orderID, userID uuid.UUID, lines []models.PurchasedLine) error
}

// ErrorReporter forwards failures that need an operator.
type ErrorReporter func(ctx context.Context, err error, tags map[string]string)

// CheckoutService runs the checkout saga: snapshot the cart, charge once,
// record the order, clear the purchased lines. A charge that cannot be turned
// into an order is refunded.
type CheckoutService struct {
	carts    repositories.CartRepository
	orders   repositories.OrderRepository
	gateway  gateways.PaymentGateway
	guard    CheckoutGuard
	clears   CartClearScheduler // optional
	report   ErrorReporter
	currency string
	log      logger.Logger

	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

// CheckoutDeps groups the collaborators of CheckoutService.
type CheckoutDeps struct {
	Carts    repositories.CartRepository
	Orders   repositories.OrderRepository
	Gateway  gateways.PaymentGateway
	Guard    CheckoutGuard
	Clears   CartClearScheduler
	Report   ErrorReporter
	Currency string
	Logger   logger.Logger
}

// NewCheckoutService returns a CheckoutService. A nil Report defaults to
// Sentry capture; a nil Clears disables background cart clearing.
func NewCheckoutService(d CheckoutDeps) *CheckoutService {
	report := d.Report
	if report == nil {
		report = telemetry.CaptureError
	}
	outcomes, err := otel.Meter(instrumentationName).Int64Counter("checkout.outcomes",
		metric.WithDescription("Checkout attempts by outcome"))
	if err != nil {
		d.Logger.Warn("checkout outcome counter unavailable", "error", err)
	}
	return &CheckoutService{
		carts:    d.Carts,
		orders:   d.Orders,
		gateway:  d.Gateway,
		guard:    d.Guard,
		clears:   d.Clears,
		report:   report,
		currency: d.Currency,
		log:      d.Logger,
		tracer:   otel.Tracer(instrumentationName),
		outcomes: outcomes,
	}
}

// Checkout purchases everything in the user's cart with paymentToken.
//
// Concurrent calls for one user are serialized; the later call sees the cart
// the earlier one left behind. Cancelling ctx aborts the checkout only until
// the charge is submitted. From then on the saga runs to completion so a
// captured payment always ends as an order or a refund.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, paymentToken string) (_ *models.Order, err error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthenticated
	}

	ctx, span := s.tracer.Start(ctx, "checkout", trace.WithAttributes(attribute.String("user_id", userID.String())))
	outcome := outcomeFailed
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("checkout.outcome", outcome))
		span.End()
		if s.outcomes != nil {
			s.outcomes.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		}
	}()

	release, err := s.guard.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.log.WarnContext(ctx, "checkout lock release failed", "user_id", userID, "error", relErr)
		}
	}()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		outcome = outcomeEmpty
		return nil, checkoutdomain.ErrEmptyCart
	}

	amount := domainsvcs.CartTotal(cart.Lines)
	epoch, err := s.guard.Epoch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read checkout epoch: %w", err)
	}
	key := domainsvcs.IdempotencyKey(userID, epoch, cart.Lines)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("checkout cancelled before charge: %w", err)
	}

	// The charge is about to be submitted; nothing below may be abandoned.
	ctx = context.WithoutCancel(ctx)

	charge, err := s.charge(ctx, models.ChargeRequest{
		Amount:         amount,
		Currency:       s.currency,
		Source:         paymentToken,
		IdempotencyKey: key,
	})
	if err != nil {
		if errors.Is(err, checkoutdomain.ErrPaymentDeclined) {
			outcome = outcomeDeclined
			// A decline is final for this key; the next attempt (maybe with
			// another card) must not replay the cached decline.
			s.advanceEpoch(ctx, userID)
		}
		return nil, err
	}

	if charge.Amount != amount {
		err := fmt.Errorf("%w: charged %d, cart total %d", checkoutdomain.ErrChargeMismatch, charge.Amount, amount)
		outcome = s.compensate(ctx, userID, charge, err)
		return nil, err
	}

	order, err := s.createOrder(ctx, cart, charge)
	if err != nil {
		outcome = s.compensate(ctx, userID, charge, err)
		return nil, fmt.Errorf("create order: %w", err)
	}

	// A stale epoch only means the next identical cart replays this charge,
	// which then resolves to the existing order.
	s.advanceEpoch(ctx, userID)

	s.clearCart(ctx, order, cart.Purchased())

	outcome = outcomeOrdered
	s.log.InfoContext(ctx, "order placed",
		"user_id", userID, "order_id", order.ID, "charge_id", charge.ID, "total", order.Total)
	return order, nil
}

func (s *CheckoutService) loadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.load_cart")
	defer span.End()

	cart, err := retry.OnConflict(ctx, func(ctx context.Context) (*models.Cart, error) {
		return s.carts.LoadCart(ctx, userID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load cart: %w", err)
	}
	span.SetAttributes(attribute.Int("cart.lines", len(cart.Lines)))
	return cart, nil
}

func (s *CheckoutService) charge(ctx context.Context, req models.ChargeRequest) (*models.Charge, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.charge",
		trace.WithAttributes(attribute.Int64("charge.amount", req.Amount), attribute.String("charge.currency", req.Currency)))
	defer span.End()

	charge, err := s.gateway.Charge(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("charge payment: %w", err)
	}
	span.SetAttributes(attribute.String("charge.id", charge.ID))
	return charge, nil
}

// createOrder stores the order for charge. If an order already references the
// charge (an idempotent replay of an earlier attempt), that order is returned.
func (s *CheckoutService) createOrder(ctx context.Context, cart *models.Cart, charge *models.Charge) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.create_order", trace.WithAttributes(attribute.String("charge.id", charge.ID)))
	defer span.End()

	order := models.NewOrder(cart, charge)
	_, err := retry.OnConflict(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.orders.Create(ctx, order)
	})
	if errors.Is(err, checkoutdomain.ErrOrderExists) {
		existing, findErr := s.orders.FindByChargeID(ctx, charge.ID)
		if findErr != nil {
			span.RecordError(findErr)
			return nil, fmt.Errorf("load order for replayed charge: %w", findErr)
		}
		s.log.InfoContext(ctx, "charge replayed, returning existing order",
			"charge_id", charge.ID, "order_id", existing.ID)
		return existing, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}

// compensate settles a charge whose order could not be stored. The charge is
// refunded only once the store confirms no order references it; a lookup that
// cannot tell hands the charge to the reconciliation ledger instead.
func (s *CheckoutService) compensate(ctx context.Context, userID uuid.UUID, charge *models.Charge, cause error) string {
	ctx, span := s.tracer.Start(ctx, "checkout.refund", trace.WithAttributes(attribute.String("charge.id", charge.ID)))
	defer span.End()

	s.log.ErrorContext(ctx, "order creation failed after charge",
		"user_id", userID, "charge_id", charge.ID, "error", cause)

	existing, lookupErr := s.orders.FindByChargeID(ctx, charge.ID)
	switch {
	case lookupErr == nil:
		// The write committed despite the error. The next attempt replays
		// the charge and returns this order.
		s.log.WarnContext(ctx, "order exists for charge, not refunding",
			"user_id", userID, "charge_id", charge.ID, "order_id", existing.ID)
		return outcomeFailed
	case !errors.Is(lookupErr, checkoutdomain.ErrOrderNotFound):
		span.RecordError(lookupErr)
		s.recordUnresolved(ctx, userID, charge, cause, lookupErr)
		return outcomeUnresolved
	}

	refundErr := s.gateway.Refund(ctx, charge.ID, domainsvcs.RefundKey(charge.ID))
	if refundErr == nil {
		s.advanceEpoch(ctx, userID)
		s.log.InfoContext(ctx, "charge refunded", "user_id", userID, "charge_id", charge.ID)
		return outcomeRefunded
	}
	span.RecordError(refundErr)
	s.recordUnresolved(ctx, userID, charge, cause, refundErr)
	return outcomeUnresolved
}

// recordUnresolved parks charge in the reconciliation ledger and reports it.
func (s *CheckoutService) recordUnresolved(ctx context.Context, userID uuid.UUID, charge *models.Charge, cause, settleErr error) {
	s.log.ErrorContext(ctx, "charge needs reconciliation",
		"user_id", userID, "charge_id", charge.ID, "amount", charge.Amount, "error", settleErr)

	entry := pkgcache.UnresolvedCharge{
		ChargeID:   charge.ID,
		UserID:     userID,
		Amount:     charge.Amount,
		Currency:   charge.Currency,
		Reason:     cause.Error(),
		RecordedAt: time.Now().UTC(),
	}
	if err := s.guard.RecordUnresolved(ctx, entry); err != nil {
		s.log.ErrorContext(ctx, "record unresolved charge failed", "charge_id", charge.ID, "error", err)
	}
	s.report(ctx, fmt.Errorf("unresolved charge %s: %w", charge.ID, errors.Join(cause, settleErr)), map[string]string{
		"charge_id": charge.ID,
		"user_id":   userID.String(),
	})
}

func (s *CheckoutService) advanceEpoch(ctx context.Context, userID uuid.UUID) {
	if err := s.guard.AdvanceEpoch(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "advance checkout epoch failed", "user_id", userID, "error", err)
	}
}

// clearCart deletes the purchased lines. Failure is not the buyer's problem:
// the order stands and the clear is retried in the background.
func (s *CheckoutService) clearCart(ctx context.Context, order *models.Order, lines []models.PurchasedLine) {
	ctx, span := s.tracer.Start(ctx, "checkout.clear_cart")
	defer span.End()

	_, err := retry.OnConflict(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.carts.DeleteLines(ctx, order.UserID, lines)
	})
	if err == nil {
		return
	}
	span.RecordError(err)
	s.log.WarnContext(ctx, "cart clear failed, scheduling retry",
		"user_id", order.UserID, "order_id", order.ID, "error", err)

	if s.clears == nil {
		return
	}
	if err := s.clears.ScheduleClear(ctx, order.ID, order.UserID, lines); err != nil {
		s.log.ErrorContext(ctx, "schedule cart clear failed",
			"user_id", order.UserID, "order_id", order.ID, "error", err)
	}
}
