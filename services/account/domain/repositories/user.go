package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/account/domain/events"
	"github.com/ghuser/storefront/services/account/domain/models"
)

// UserRepository is the password reset flow's access to accounts.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound if no account has email.
	FindByEmail(ctx context.Context, email models.Email) (*models.User, error)

	// FindByResetToken returns domain.ErrInvalidToken if no account holds
	// tokenHash.
	FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error)

	// IssueResetToken replaces any pending token of notice.UserID with
	// tokenHash, valid until notice.ExpiresAt, and publishes notice in the
	// same transaction.
	IssueResetToken(ctx context.Context, tokenHash string, notice events.PasswordResetRequestedEvent) error

	// ConsumeResetToken sets passwordHash and clears the reset fields, only
	// if the user still holds tokenHash. Returns apperr.ErrWriteConflict when
	// the token was consumed or replaced concurrently.
	ConsumeResetToken(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string) error
}
