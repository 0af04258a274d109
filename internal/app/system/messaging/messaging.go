// Package messaging sends SMS through Twilio and transactional email through
// Customer.io. Callers treat both as fire-and-forget: failures are returned
// for logging but never undo the write that triggered them.
package messaging

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by senders built without credentials.
var ErrNotConfigured = errors.New("messaging: provider is not configured")

// ErrBadPhone is returned for a recipient that is not E.164.
var ErrBadPhone = errors.New("messaging: recipient must be an E.164 phone number")

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidE164 reports whether s looks like +<country><number>.
func ValidE164(s string) bool { return e164.MatchString(strings.TrimSpace(s)) }

// SMSResult is what Twilio reports back for an accepted message.
type SMSResult struct {
	SID    string `json:"sid"`
	To     string `json:"to"`
	Body   string `json:"body"`
	Status string `json:"status"`
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (SMSResult, error)
}

// Email is one transactional message rendered from a Customer.io template.
type Email struct {
	To         string
	TemplateID string
	Data       map[string]any
}

// Emailer delivers transactional email.
type Emailer interface {
	SendEmail(ctx context.Context, e Email) error
}

// DisabledSMS is used when Twilio credentials are missing.
type DisabledSMS struct{}

func (DisabledSMS) SendSMS(context.Context, string, string) (SMSResult, error) {
	return SMSResult{}, ErrNotConfigured
}

// LogEmailer logs instead of sending. It backs local development.
type LogEmailer struct{ Log *zap.Logger }

func (l LogEmailer) SendEmail(_ context.Context, e Email) error {
	l.Log.Info("email not sent (customer.io not configured)",
		zap.String("to", e.To), zap.String("template", e.TemplateID))
	return nil
}
