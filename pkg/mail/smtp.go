package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg}
	m.send = smtp.SendMail
	if cfg.Port == "465" {
		m.send = m.sendTLS
	}
	return m
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	if m.cfg.Username == "" {
		return ErrNotConfigured
	}
	from := msg.From
	if from == "" {
		from = m.cfg.From
	}

	raw, err := buildMIME(from, msg, time.Now())
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, envelopeAddr(from), msg.To, raw); err != nil {
		return fmt.Errorf("mail/smtp: %w", err)
	}
	return nil
}

func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// envelopeAddr strips a display name: "Shop <a@b.dz>" becomes "a@b.dz".
func envelopeAddr(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

// buildMIME renders a multipart/alternative message when both bodies are set.
func buildMIME(from string, msg Message, now time.Time) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" || msg.Text == "" {
		ct, body := "text/plain", msg.Text
		if msg.HTML != "" {
			ct, body = "text/html", msg.HTML
		}
		b.WriteString("Content-Type: " + ct + "; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(body)
		return b.Bytes(), nil
	}

	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)
	b.WriteString("Content-Type: multipart/alternative; boundary=" + mw.Boundary() + "\r\n\r\n")

	for _, p := range []struct{ ct, body string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ct + "; charset=\"UTF-8\""}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	b.Write(parts.Bytes())
	return b.Bytes(), nil
}
