package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ghuser/storefront/pkg/logger"
	accountdomain "github.com/ghuser/storefront/services/account/domain"
	"github.com/ghuser/storefront/services/account/domain/events"
	"github.com/ghuser/storefront/services/account/domain/gateways"
	"github.com/ghuser/storefront/services/account/domain/models"
	"github.com/ghuser/storefront/services/account/domain/repositories"
	domainsvcs "github.com/ghuser/storefront/services/account/domain/services"
)

// ResetEmailDeps groups the collaborators of ResetEmailService.
type ResetEmailDeps struct {
	Users       repositories.UserRepository
	Mailer      gateways.Mailer
	Sealer      TokenSealer
	FrontendURL string
	Logger      logger.Logger
	Now         func() time.Time
}

// ResetEmailService mails the links queued by RequestReset. It runs in the
// worker, off the request path.
type ResetEmailService struct {
	users       repositories.UserRepository
	mailer      gateways.Mailer
	sealer      TokenSealer
	frontendURL string
	log         logger.Logger
	now         func() time.Time
}

// NewResetEmailService returns a ResetEmailService.
func NewResetEmailService(d ResetEmailDeps) *ResetEmailService {
	s := &ResetEmailService{
		users:       d.Users,
		mailer:      d.Mailer,
		sealer:      d.Sealer,
		frontendURL: strings.TrimRight(d.FrontendURL, "/"),
		log:         d.Logger,
		now:         d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Deliver mails the reset link of notice. Notices that can no longer lead to
// a reset are dropped: expired ones, unreadable seals and tokens replaced by
// a newer request. Only lookup and send failures are returned, so the
// subscriber redelivers.
func (s *ResetEmailService) Deliver(ctx context.Context, notice events.PasswordResetRequestedEvent) error {
	log := s.log.With("user_id", notice.UserID, "event_id", notice.EventID)

	if s.now().After(notice.ExpiresAt) {
		log.InfoContext(ctx, "reset link expired before delivery")
		return nil
	}
	token, err := s.sealer.Open(notice.SealedToken)
	if err != nil {
		log.WarnContext(ctx, "reset notice dropped", "error", err)
		return nil
	}

	user, err := s.users.FindByEmail(ctx, models.Email(notice.Email))
	if errors.Is(err, accountdomain.ErrUserNotFound) {
		log.InfoContext(ctx, "reset notice for removed account dropped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user.ID != notice.UserID || user.ResetTokenHash != domainsvcs.HashResetToken(token) {
		log.InfoContext(ctx, "reset link superseded, not sent")
		return nil
	}

	body, err := renderResetEmail(s.resetLink(token), notice.ExpiresAt)
	if err != nil {
		log.ErrorContext(ctx, "render reset email failed", "error", err)
		return nil
	}
	if err := s.mailer.Send(ctx, notice.Email, resetEmailSubject, body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	log.InfoContext(ctx, "password reset link sent")
	return nil
}

func (s *ResetEmailService) resetLink(token string) string {
	return s.frontendURL + "/reset?resetToken=" + url.QueryEscape(token)
}
