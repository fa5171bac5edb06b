package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/retry"
)

const (
	checkoutLockPrefix  = "checkout:lock"
	checkoutEpochPrefix = "checkout:epoch"

	// ReconcileKey is the Redis hash holding charges that could be neither
	// turned into an order nor refunded. Field = charge id, value = JSON entry.
	ReconcileKey = "checkout:reconcile"
)

// ErrCheckoutLocked is returned when another checkout for the same user still
// holds the lock after the wait budget. It wraps apperr.ErrWriteConflict.
var ErrCheckoutLocked = fmt.Errorf("%w: checkout already in progress", apperr.ErrWriteConflict)

// releaseScript deletes the lock only if it still carries the caller's token,
// so an expired holder can never release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UnresolvedCharge is a reconciliation ledger entry.
type UnresolvedCharge struct {
	ChargeID   string    `json:"charge_id"`
	UserID     uuid.UUID `json:"user_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Reason     string    `json:"reason"`
	RecordedAt time.Time `json:"recorded_at"`
}

// CheckoutGuard holds the cross-process state the checkout saga needs:
// a per-user mutual exclusion lock, a per-user attempt epoch that feeds the
// payment idempotency key, and the ledger of unresolved charges.
type CheckoutGuard struct {
	client *RedisClient
	ttl    time.Duration
}

// NewCheckoutGuard returns a guard whose locks expire after ttl. Waiters give
// up after the same duration.
func NewCheckoutGuard(r *RedisClient, ttl time.Duration) *CheckoutGuard {
	return &CheckoutGuard{client: r, ttl: ttl}
}

// Lock acquires the checkout lock for userID, polling with backoff while
// another holder has it. The returned release func is safe to call once the
// caller's context is gone.
func (g *CheckoutGuard) Lock(ctx context.Context, userID uuid.UUID) (func(context.Context) error, error) {
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s:%s", checkoutLockPrefix, userID)

	_, err = retry.Until(ctx, g.ttl, func(ctx context.Context) (struct{}, error) {
		ok, err := g.client.Client().SetNX(ctx, key, token, g.ttl).Result()
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: acquire checkout lock: %w", apperr.ErrStoreUnavailable, err)
		}
		if !ok {
			return struct{}{}, ErrCheckoutLocked
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, g.client.Client(), []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release checkout lock: %w", err)
		}
		return nil
	}
	return release, nil
}

// Epoch returns the current attempt epoch for userID (0 when never advanced).
func (g *CheckoutGuard) Epoch(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := g.client.Client().Get(ctx, g.epochKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read checkout epoch: %w", apperr.ErrStoreUnavailable, err)
	}
	return n, nil
}

// AdvanceEpoch moves userID to a fresh attempt epoch. Called once a charge is
// resolved (order created or refunded) so the next checkout of an identical
// cart gets a new idempotency key.
func (g *CheckoutGuard) AdvanceEpoch(ctx context.Context, userID uuid.UUID) error {
	if err := g.client.Client().Incr(ctx, g.epochKey(userID)).Err(); err != nil {
		return fmt.Errorf("advance checkout epoch: %w", err)
	}
	return nil
}

// RecordUnresolved adds a charge to the reconciliation ledger.
func (g *CheckoutGuard) RecordUnresolved(ctx context.Context, entry UnresolvedCharge) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode unresolved charge: %w", err)
	}
	if err := g.client.Client().HSet(ctx, ReconcileKey, entry.ChargeID, payload).Err(); err != nil {
		return fmt.Errorf("record unresolved charge: %w", err)
	}
	return nil
}

// UnresolvedCharges lists every ledger entry.
func (g *CheckoutGuard) UnresolvedCharges(ctx context.Context) ([]UnresolvedCharge, error) {
	vals, err := g.client.Client().HGetAll(ctx, ReconcileKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list unresolved charges: %w", err)
	}
	out := make([]UnresolvedCharge, 0, len(vals))
	for chargeID, raw := range vals {
		var entry UnresolvedCharge
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode unresolved charge %s: %w", chargeID, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// ResolveCharge removes a charge from the ledger.
func (g *CheckoutGuard) ResolveCharge(ctx context.Context, chargeID string) error {
	if err := g.client.Client().HDel(ctx, ReconcileKey, chargeID).Err(); err != nil {
		return fmt.Errorf("resolve charge: %w", err)
	}
	return nil
}

func (g *CheckoutGuard) epochKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", checkoutEpochPrefix, userID)
}

func newLockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
