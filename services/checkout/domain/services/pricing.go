// Package services contains stateless domain services for the checkout
// bounded context. They operate purely on domain types.
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/checkout/domain/models"
)

// CartTotal sums price * quantity over lines in integer minor units.
func CartTotal(lines []models.CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// IdempotencyKey derives the payment idempotency key for one checkout attempt.
// It is stable across retries of the same attempt (same user, epoch and cart
// contents, in any order) and changes once the epoch advances.
func IdempotencyKey(userID uuid.UUID, epoch int64, lines []models.CartLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%s:%s:%d:%d", l.CartItemID, l.ItemID, l.Quantity, l.Price)
	}
	slices.Sort(parts)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|", userID, epoch)
	h.Write([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// RefundKey is the idempotency key for refunding chargeID. Every refund
// attempt for the same charge shares it, so retries never double-refund.
func RefundKey(chargeID string) string {
	return "refund-" + chargeID
}
