// Package notification delivers rendered mail notifications and records the
// outcome.
//
// Define a notification:
//
//	type OrderAlert struct{ Order models.Order }
//	func (n OrderAlert) Kind() string { return "admin" }
//	func (n OrderAlert) ToMail() (notification.MailData, error) {
//	    return notification.MailData{Subject: "New order", Body: "<h1>...</h1>"}, nil
//	}
//
// Send:
//
//	sender := notification.NewSender(mail.FromConfig(), config.MailFrom())
//	err := sender.Send(ctx, []string{"admin@shop.dz"}, OrderAlert{Order: o})
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/mail"
	"github.com/bytekstore/bytek/pkg/metrics"
)

// Outcome labels recorded in metrics.Notifications.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// MailData is a rendered email.
type MailData struct {
	Subject string
	Body    string // HTML
	Text    string // plain-text alternative
}

// Mailable is a notification that renders to an email.
type Mailable interface {
	// Kind labels the notification in logs and metrics.
	Kind() string
	ToMail() (MailData, error)
}

// Sender renders and mails notifications.
type Sender struct {
	mailer mail.Mailer
	from   string
}

func NewSender(m mail.Mailer, from string) *Sender {
	return &Sender{mailer: m, from: from}
}

// Send mails n to every address in to. An empty recipient list or an
// unconfigured mail driver is a skip, not an error. Render and delivery
// failures are returned so a queue can retry them.
func (s *Sender) Send(ctx context.Context, to []string, n Mailable) error {
	log := logger.WithCtx(ctx).With("notification", n.Kind())

	to = compact(to)
	if len(to) == 0 {
		metrics.Notifications.WithLabelValues(n.Kind(), OutcomeSkipped).Inc()
		log.Info("notification: no recipient, skipped")
		return nil
	}

	data, err := n.ToMail()
	if err != nil {
		metrics.Notifications.WithLabelValues(n.Kind(), OutcomeFailed).Inc()
		return fmt.Errorf("notification: render %s: %w", n.Kind(), err)
	}

	err = s.mailer.Send(ctx, mail.Message{
		From:    s.from,
		To:      to,
		Subject: data.Subject,
		HTML:    data.Body,
		Text:    data.Text,
	})
	switch {
	case errors.Is(err, mail.ErrNotConfigured):
		metrics.Notifications.WithLabelValues(n.Kind(), OutcomeSkipped).Inc()
		log.Warn("notification: mail driver not configured, skipped")
		return nil
	case err != nil:
		metrics.Notifications.WithLabelValues(n.Kind(), OutcomeFailed).Inc()
		return fmt.Errorf("notification: send %s: %w", n.Kind(), err)
	}

	metrics.Notifications.WithLabelValues(n.Kind(), OutcomeSent).Inc()
	log.Info("notification: sent", "to", strings.Join(to, ", "), "subject", data.Subject)
	return nil
}

func compact(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
