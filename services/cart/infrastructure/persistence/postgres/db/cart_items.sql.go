package db

import (
	"context"

	"github.com/google/uuid"
)

const upsertCartItem = `-- name: UpsertCartItem :one
INSERT INTO cart_items (id, user_id, item_id, quantity)
VALUES ($1, $2, $3, 1)
ON CONFLICT (user_id, item_id)
DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = now()
RETURNING id, user_id, item_id, quantity, created_at, updated_at
`

type UpsertCartItemParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	ItemID uuid.UUID
}

// UpsertCartItem inserts the line with quantity 1 or increments the existing
// one. ID is only used for a new line.
func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRowContext(ctx, upsertCartItem, arg.ID, arg.UserID, arg.ItemID)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ItemID,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
