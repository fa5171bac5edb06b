// Package workflows holds the checkout's durable background work.
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	pkgworkflows "github.com/ghuser/storefront/pkg/workflows"
	"github.com/ghuser/storefront/services/checkout/domain/models"
	"github.com/ghuser/storefront/services/checkout/domain/repositories"
)

// ClearCartInput names the lines an order purchased.
type ClearCartInput struct {
	OrderID uuid.UUID              `json:"order_id"`
	UserID  uuid.UUID              `json:"user_id"`
	Lines   []models.PurchasedLine `json:"lines"`
}

// clearCartRetry keeps trying for roughly a day before giving up.
var clearCartRetry = &temporal.RetryPolicy{
	InitialInterval:    time.Second,
	BackoffCoefficient: 2,
	MaximumInterval:    10 * time.Minute,
	MaximumAttempts:    150,
}

// ClearCartWorkflow deletes the purchased lines of an order whose checkout
// could not clear them inline. A retried delete only removes what is still
// there, and a decrement needs more than the purchased quantity left.
func ClearCartWorkflow(ctx workflow.Context, in ClearCartInput) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         clearCartRetry,
	})

	var a *Activities
	if err := workflow.ExecuteActivity(ctx, a.DeleteCartLines, in).Get(ctx, nil); err != nil {
		return fmt.Errorf("clear cart for order %s: %w", in.OrderID, err)
	}
	workflow.GetLogger(ctx).Info("cart cleared", "order_id", in.OrderID, "lines", len(in.Lines))
	return nil
}

// Activities are the side effects ClearCartWorkflow performs.
type Activities struct {
	Carts repositories.CartRepository
}

// DeleteCartLines removes the input's lines from the user's cart.
func (a *Activities) DeleteCartLines(ctx context.Context, in ClearCartInput) error {
	return a.Carts.DeleteLines(ctx, in.UserID, in.Lines)
}

// Register adds the checkout workflows and activities to w.
func Register(w worker.Registry, carts repositories.CartRepository) {
	w.RegisterWorkflow(ClearCartWorkflow)
	w.RegisterActivity(&Activities{Carts: carts})
}

// Scheduler starts ClearCartWorkflow runs. One run exists per order.
type Scheduler struct {
	client *pkgworkflows.TemporalClient
}

// NewScheduler returns a Scheduler using tc.
func NewScheduler(tc *pkgworkflows.TemporalClient) *Scheduler {
	return &Scheduler{client: tc}
}

// ScheduleClear starts the clear for orderID. Scheduling twice for one order
// attaches to the existing run.
func (s *Scheduler) ScheduleClear(ctx context.Context, orderID, userID uuid.UUID, lines []models.PurchasedLine) error {
	_, err := s.client.Start(ctx, "clear-cart-"+orderID.String(), ClearCartWorkflow, ClearCartInput{
		OrderID: orderID,
		UserID:  userID,
		Lines:   lines,
	})
	return err
}
