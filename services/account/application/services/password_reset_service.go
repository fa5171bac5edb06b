package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/retry"
	accountdomain "github.com/ghuser/storefront/services/account/domain"
	"github.com/ghuser/storefront/services/account/domain/events"
	"github.com/ghuser/storefront/services/account/domain/models"
	"github.com/ghuser/storefront/services/account/domain/repositories"
	domainsvcs "github.com/ghuser/storefront/services/account/domain/services"
)

// Ack is the only successful answer of the reset flow. It carries no account
// information.
type Ack struct {
	Message string
}

var (
	// RequestAck is returned for every well-formed reset request, whether or
	// not the email belongs to an account.
	RequestAck = Ack{Message: "If an account exists for that email, a reset link has been sent."}
	// ResetAck is returned once the password has been changed.
	ResetAck = Ack{Message: "Your password has been reset."}
)

// SessionRevoker ends every session of a user. Implemented by auth.RedisStore.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

// TokenSealer encrypts a raw reset token for the trip to the mail worker.
// Implemented by seal.TokenSealer.
type TokenSealer interface {
	Seal(token string) (string, error)
	Open(sealed string) (string, error)
}

// PasswordHasher turns a policy-checked password into its stored form.
type PasswordHasher func(password string) (string, error)

// BcryptHasher hashes with bcrypt at the default cost.
func BcryptHasher(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// PasswordResetDeps groups the collaborators of PasswordResetService.
type PasswordResetDeps struct {
	Users    repositories.UserRepository
	Sealer   TokenSealer
	Sessions SessionRevoker // optional
	Logger   logger.Logger

	// Test seams; zero values use the real clock, crypto/rand and bcrypt.
	Now     func() time.Time
	Entropy io.Reader
	Hash    PasswordHasher
}

// PasswordResetService issues and consumes single-use, time-bounded reset tokens.
type PasswordResetService struct {
	users    repositories.UserRepository
	sealer   TokenSealer
	sessions SessionRevoker
	log      logger.Logger
	now      func() time.Time
	entropy  io.Reader
	hash     PasswordHasher
}

// NewPasswordResetService returns a PasswordResetService.
func NewPasswordResetService(d PasswordResetDeps) *PasswordResetService {
	s := &PasswordResetService{
		users:    d.Users,
		sealer:   d.Sealer,
		sessions: d.Sessions,
		log:      d.Logger,
		now:      d.Now,
		entropy:  d.Entropy,
		hash:     d.Hash,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.hash == nil {
		s.hash = BcryptHasher
	}
	return s
}

// RequestReset issues a reset token for email and queues the reset link for
// the mail worker. Unknown or malformed emails get the same Ack and nothing
// is written. No mail is sent on the request path.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (Ack, error) {
	addr, err := models.NewEmail(email)
	if err != nil {
		return RequestAck, nil
	}

	user, err := s.users.FindByEmail(ctx, addr)
	if errors.Is(err, accountdomain.ErrUserNotFound) {
		s.log.InfoContext(ctx, "password reset requested for unknown email")
		return RequestAck, nil
	}
	if err != nil {
		return Ack{}, fmt.Errorf("find user: %w", err)
	}

	token, err := domainsvcs.NewResetToken(s.entropy)
	if err != nil {
		return Ack{}, err
	}
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return Ack{}, err
	}
	now := s.now()
	notice := events.PasswordResetRequestedEvent{
		EventID:     uuid.New(),
		Version:     1,
		UserID:      user.ID,
		Email:       user.Email.String(),
		SealedToken: sealed,
		ExpiresAt:   now.Add(domainsvcs.ResetTokenTTL),
		OccurredAt:  now,
	}
	if err := s.users.IssueResetToken(ctx, domainsvcs.HashResetToken(token), notice); err != nil {
		return Ack{}, fmt.Errorf("store reset token: %w", err)
	}

	s.log.InfoContext(ctx, "password reset link queued", "user_id", user.ID, "event_id", notice.EventID)
	return RequestAck, nil
}

// ResetPassword consumes token and sets newPassword. Checks run in a fixed
// order: confirmation, token lookup, expiry, policy. A token is consumed at
// most once even under concurrent calls; the losers see ErrInvalidToken.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (Ack, error) {
	if newPassword != confirmPassword {
		return Ack{}, accountdomain.ErrPasswordMismatch
	}
	if token == "" {
		return Ack{}, accountdomain.ErrInvalidToken
	}
	tokenHash := domainsvcs.HashResetToken(token)

	var passwordHash string
	user, err := retry.OnConflict(ctx, func(ctx context.Context) (*models.User, error) {
		user, err := s.users.FindByResetToken(ctx, tokenHash)
		if err != nil {
			return nil, err
		}
		if user.ResetExpired(s.now()) {
			return nil, accountdomain.ErrTokenExpired
		}
		if err := domainsvcs.ValidatePassword(newPassword); err != nil {
			return nil, err
		}
		if passwordHash == "" {
			if passwordHash, err = s.hash(newPassword); err != nil {
				return nil, err
			}
		}
		return user, s.users.ConsumeResetToken(ctx, user.ID, tokenHash, passwordHash)
	})
	if err != nil {
		if errors.Is(err, accountdomain.ErrPolicyViolation) {
			s.log.InfoContext(ctx, "password reset rejected by policy", "error", err)
		}
		return Ack{}, err
	}

	s.log.InfoContext(ctx, "password reset", "user_id", user.ID)
	if s.sessions != nil {
		if err := s.sessions.RevokeUser(context.WithoutCancel(ctx), user.ID); err != nil {
			s.log.WarnContext(ctx, "revoke sessions after reset failed", "user_id", user.ID, "error", err)
		}
	}
	return ResetAck, nil
}
