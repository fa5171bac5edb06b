package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/events"
	accountdomain "github.com/ghuser/storefront/services/account/domain"
	domainevents "github.com/ghuser/storefront/services/account/domain/events"
	"github.com/ghuser/storefront/services/account/domain/models"
	"github.com/ghuser/storefront/services/account/infrastructure/persistence/postgres/db"
)

// UserRepository implements repositories.UserRepository against PostgreSQL.
type UserRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewUserRepository returns a UserRepository backed by the given connection
// pool. The bus carries reset notices to the mail worker; a nil bus stores
// tokens without publishing.
func NewUserRepository(db *database.Database, bus *events.EventBus) *UserRepository {
	return &UserRepository{db: db, bus: bus}
}

// FindByEmail looks the account up by its normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email models.Email) (*models.User, error) {
	row, err := db.New(r.db.DB()).GetUserByEmail(ctx, email.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, accountdomain.ErrUserNotFound
	}
	if err != nil {
		return nil, database.Classify(err, "find user by email")
	}
	return rowToUser(row), nil
}

// FindByResetToken returns the account holding tokenHash.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	row, err := db.New(r.db.DB()).GetUserByResetToken(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, accountdomain.ErrInvalidToken
	}
	if err != nil {
		return nil, database.Classify(err, "find user by reset token")
	}
	return rowToUser(row), nil
}

// IssueResetToken stores the new pending token, replacing any previous one,
// and publishes notice within the same transaction.
func (r *UserRepository) IssueResetToken(ctx context.Context, tokenHash string, notice domainevents.PasswordResetRequestedEvent) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := db.New(tx).SetResetToken(ctx, db.SetResetTokenParams{
			ID:               notice.UserID,
			ResetTokenHash:   tokenHash,
			ResetTokenExpiry: notice.ExpiresAt,
		})
		if err != nil {
			return database.Classify(err, "set reset token")
		}
		if n == 0 {
			return accountdomain.ErrUserNotFound
		}

		if r.bus == nil {
			return nil
		}
		msg, err := events.NewEventMessage(notice.EventID.String(), notice.Version, notice)
		if err != nil {
			return err
		}
		if err := r.bus.PublishInTx(ctx, tx, domainevents.TopicPasswordResetRequested, msg); err != nil {
			return database.Classify(err, "publish password reset requested")
		}
		return nil
	})
}

// ConsumeResetToken swaps the password in a single conditional UPDATE. Zero
// affected rows means another request consumed or replaced the token first.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string) error {
	n, err := db.New(r.db.DB()).ConsumeResetToken(ctx, db.ConsumeResetTokenParams{
		ID:             userID,
		ResetTokenHash: tokenHash,
		PasswordHash:   passwordHash,
	})
	if err != nil {
		if database.PgCode(err) == database.CodeCheckViolation {
			return fmt.Errorf("%w: %s", accountdomain.ErrPolicyViolation, database.ConstraintName(err))
		}
		return database.Classify(err, "consume reset token")
	}
	if n == 0 {
		return fmt.Errorf("%w: reset token no longer held", apperr.ErrWriteConflict)
	}
	return nil
}

// rowToUser maps a db.User to a domain models.User.
func rowToUser(row db.User) *models.User {
	u := &models.User{
		ID:           row.ID,
		Email:        models.Email(row.Email),
		PasswordHash: row.PasswordHash,
	}
	if row.ResetTokenHash.Valid {
		u.ResetTokenHash = row.ResetTokenHash.String
	}
	if row.ResetTokenExpiry.Valid {
		u.ResetTokenExpiry = row.ResetTokenExpiry.Time
	}
	return u
}
