package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	outbound "github.com/bytekstore/bytek/pkg/http"
)

// ResendMailer posts messages to the Resend HTTP API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *outbound.Client
}

func NewResendMailer(apiKey, from, endpoint string, client *http.Client) *ResendMailer {
	return &ResendMailer{apiKey: apiKey, from: from, endpoint: endpoint, client: outbound.New(client)}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send returns ErrNotConfigured when no API key is set. Rate limits and
// provider outages are retried a few times before giving up.
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if m.apiKey == "" {
		return ErrNotConfigured
	}
	from := msg.From
	if from == "" {
		from = m.from
	}

	resp, err := m.client.Post(m.endpoint).
		Bearer(m.apiKey).
		Body(resendRequest{From: from, To: msg.To, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text}).
		Timeout(10*time.Second).
		Retry(3, 500*time.Millisecond).
		Send(ctx)
	if err != nil {
		return fmt.Errorf("mail/resend: send: %w", err)
	}

	if !resp.OK() {
		var out resendResponse
		_ = resp.JSON(&out)
		return fmt.Errorf("mail/resend: status %d: %s", resp.StatusCode, out.Message)
	}
	return nil
}
