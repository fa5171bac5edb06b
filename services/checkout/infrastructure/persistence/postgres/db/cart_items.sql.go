package db

import (
	"context"

	"github.com/google/uuid"
)

const listCartLines = `-- name: ListCartLines :many
SELECT ci.id, ci.item_id, ci.quantity, i.name, i.description, i.image_url, i.price
FROM cart_items ci
JOIN items i ON i.id = ci.item_id
WHERE ci.user_id = $1
ORDER BY ci.created_at, ci.id
`

type ListCartLinesRow struct {
	ID          uuid.UUID
	ItemID      uuid.UUID
	Quantity    int32
	Name        string
	Description string
	ImageUrl    string
	Price       int64
}

func (q *Queries) ListCartLines(ctx context.Context, userID uuid.UUID) ([]ListCartLinesRow, error) {
	rows, err := q.db.QueryContext(ctx, listCartLines, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListCartLinesRow
	for rows.Next() {
		var i ListCartLinesRow
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.Quantity,
			&i.Name,
			&i.Description,
			&i.ImageUrl,
			&i.Price,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deletePurchasedLine = `-- name: DeletePurchasedLine :execrows
DELETE FROM cart_items
WHERE user_id = $1 AND id = $2 AND quantity <= $3
`

type DeletePurchasedLineParams struct {
	UserID   uuid.UUID
	ID       uuid.UUID
	Quantity int32
}

// DeletePurchasedLine removes the line if it holds no more than the purchased
// quantity.
func (q *Queries) DeletePurchasedLine(ctx context.Context, arg DeletePurchasedLineParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePurchasedLine, arg.UserID, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const decrementPurchasedLine = `-- name: DecrementPurchasedLine :execrows
UPDATE cart_items
SET quantity = quantity - $3, updated_at = now()
WHERE user_id = $1 AND id = $2 AND quantity > $3
`

type DecrementPurchasedLineParams struct {
	UserID   uuid.UUID
	ID       uuid.UUID
	Quantity int32
}

// DecrementPurchasedLine takes the purchased quantity off a line that grew
// after the purchase.
func (q *Queries) DecrementPurchasedLine(ctx context.Context, arg DecrementPurchasedLineParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, decrementPurchasedLine, arg.UserID, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
