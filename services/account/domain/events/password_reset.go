package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicPasswordResetRequested carries reset links to the worker that mails them.
const TopicPasswordResetRequested = "account.password_reset_requested"

// PasswordResetRequestedEvent is published in the transaction that stores the
// token hash. The raw token only travels sealed.
type PasswordResetRequestedEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	Version     int       `json:"version"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	SealedToken string    `json:"sealed_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	OccurredAt  time.Time `json:"occurred_at"`
}
