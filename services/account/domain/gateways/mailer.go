// Package gateways declares the external systems the account context depends on.
package gateways

import "context"

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
