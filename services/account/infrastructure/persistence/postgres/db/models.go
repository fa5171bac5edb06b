package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	ResetTokenHash   sql.NullString
	ResetTokenExpiry sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
