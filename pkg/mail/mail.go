// Package mail delivers transactional email.
//
// Three drivers share the Mailer interface:
//   - "smtp":   net/smtp with STARTTLS or implicit TLS on 465
//   - "resend": the Resend HTTP API (RESEND_API_KEY)
//   - "log":    writes the message to the structured log (development)
//
//	m := mail.FromConfig()
//	err := m.Send(ctx, mail.Message{To: []string{"a@b.dz"}, Subject: "Hi", HTML: "<p>Hi</p>"})
package mail

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bytekstore/bytek/config"
	"github.com/bytekstore/bytek/pkg/logger"
)

// ErrNotConfigured means the selected driver lacks credentials. Callers
// treat it as "skip", not as a delivery failure.
var ErrNotConfigured = errors.New("mail: driver not configured")

// Message is one outgoing email. HTML and Text are alternatives of the same
// content; either may be empty.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// FromConfig builds the mailer selected by MAIL_DRIVER.
func FromConfig() Mailer {
	switch config.MailDriver() {
	case "smtp":
		return NewSMTPMailer(SMTPConfig{
			Host:     config.MailHost(),
			Port:     config.MailPort(),
			Username: config.MailUsername(),
			Password: config.MailPassword(),
			From:     config.MailFrom(),
		})
	case "resend":
		return NewResendMailer(config.ResendAPIKey(), config.MailFrom(), config.ResendEndpoint(),
			&http.Client{Timeout: 10 * time.Second})
	default:
		return LogMailer{}
	}
}

// LogMailer logs messages instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.WithCtx(ctx).Info("mail: logged",
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"bytes", len(msg.HTML)+len(msg.Text),
	)
	return nil
}
