package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const insertOrder = `-- name: InsertOrder :exec
INSERT INTO orders (id, user_id, charge_id, currency, total, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertOrderParams struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ChargeID  string
	Currency  string
	Total     int64
	CreatedAt time.Time
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) error {
	_, err := q.db.ExecContext(ctx, insertOrder,
		arg.ID,
		arg.UserID,
		arg.ChargeID,
		arg.Currency,
		arg.Total,
		arg.CreatedAt,
	)
	return err
}

const insertOrderItem = `-- name: InsertOrderItem :exec
INSERT INTO order_items (id, order_id, position, name, description, image_url, price, quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertOrderItemParams struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Position    int32
	Name        string
	Description string
	ImageUrl    string
	Price       int64
	Quantity    int32
}

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) error {
	_, err := q.db.ExecContext(ctx, insertOrderItem,
		arg.ID,
		arg.OrderID,
		arg.Position,
		arg.Name,
		arg.Description,
		arg.ImageUrl,
		arg.Price,
		arg.Quantity,
	)
	return err
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT id, user_id, charge_id, currency, total, created_at
FROM orders
WHERE id = $1 AND user_id = $2
`

type GetOrderByIDParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetOrderByID(ctx context.Context, arg GetOrderByIDParams) (Order, error) {
	row := q.db.QueryRowContext(ctx, getOrderByID, arg.ID, arg.UserID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ChargeID,
		&i.Currency,
		&i.Total,
		&i.CreatedAt,
	)
	return i, err
}

const getOrderByChargeID = `-- name: GetOrderByChargeID :one
SELECT id, user_id, charge_id, currency, total, created_at
FROM orders
WHERE charge_id = $1
`

func (q *Queries) GetOrderByChargeID(ctx context.Context, chargeID string) (Order, error) {
	row := q.db.QueryRowContext(ctx, getOrderByChargeID, chargeID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ChargeID,
		&i.Currency,
		&i.Total,
		&i.CreatedAt,
	)
	return i, err
}

const listOrderItems = `-- name: ListOrderItems :many
SELECT id, order_id, position, name, description, image_url, price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY position
`

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.QueryContext(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.Position,
			&i.Name,
			&i.Description,
			&i.ImageUrl,
			&i.Price,
			&i.Quantity,
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
