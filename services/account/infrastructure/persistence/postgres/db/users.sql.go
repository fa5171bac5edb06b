package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, password_hash, reset_token_hash, reset_token_expiry, created_at, updated_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.ResetTokenHash,
		&i.ResetTokenExpiry,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserByResetToken = `-- name: GetUserByResetToken :one
SELECT id, email, password_hash, reset_token_hash, reset_token_expiry, created_at, updated_at
FROM users
WHERE reset_token_hash = $1
`

func (q *Queries) GetUserByResetToken(ctx context.Context, resetTokenHash string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByResetToken, resetTokenHash)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.ResetTokenHash,
		&i.ResetTokenExpiry,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const setResetToken = `-- name: SetResetToken :execrows
UPDATE users
SET reset_token_hash = $2, reset_token_expiry = $3, updated_at = now()
WHERE id = $1
`

type SetResetTokenParams struct {
	ID               uuid.UUID
	ResetTokenHash   string
	ResetTokenExpiry time.Time
}

func (q *Queries) SetResetToken(ctx context.Context, arg SetResetTokenParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setResetToken, arg.ID, arg.ResetTokenHash, arg.ResetTokenExpiry)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const consumeResetToken = `-- name: ConsumeResetToken :execrows
UPDATE users
SET password_hash = $3, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = now()
WHERE id = $1 AND reset_token_hash = $2
`

type ConsumeResetTokenParams struct {
	ID             uuid.UUID
	ResetTokenHash string
	PasswordHash   string
}

// ConsumeResetToken only matches while the user still holds ResetTokenHash.
func (q *Queries) ConsumeResetToken(ctx context.Context, arg ConsumeResetTokenParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, consumeResetToken, arg.ID, arg.ResetTokenHash, arg.PasswordHash)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
