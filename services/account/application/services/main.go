package services

import (
	"github.com/ghuser/storefront/pkg/app"
	domainsvcs "github.com/ghuser/storefront/services/account/domain/services"
	"github.com/ghuser/storefront/services/account/infrastructure/mail"
	"github.com/ghuser/storefront/services/account/infrastructure/persistence/postgres"
	"github.com/ghuser/storefront/services/account/infrastructure/seal"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	PasswordReset *PasswordResetService
	ResetEmail    *ResetEmailService
}

// New wires the account application services with infrastructure from the
// Application container. The API uses PasswordReset; the worker uses ResetEmail.
func New(a *app.Application) *Services {
	cfg := a.Config
	users := postgres.NewUserRepository(a.Db, a.EventBus)
	sealer := seal.NewTokenSealer([]byte(cfg.SessionAuthKey), []byte(cfg.SessionEncryptionKey), domainsvcs.ResetTokenTTL)

	deps := PasswordResetDeps{
		Users:  users,
		Sealer: sealer,
		Logger: a.Logger,
	}
	if a.SessionStore != nil {
		deps.Sessions = a.SessionStore
	}

	return &Services{
		PasswordReset: NewPasswordResetService(deps),
		ResetEmail: NewResetEmailService(ResetEmailDeps{
			Users: users,
			Mailer: mail.NewSMTPMailer(mail.Config{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				From:     cfg.MailFrom,
			}, a.Logger),
			Sealer:      sealer,
			FrontendURL: cfg.FrontendURL,
			Logger:      a.Logger,
		}),
	}
}
