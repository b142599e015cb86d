package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendMailer_Send(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test", "Shop <orders@shop.dz>", srv.URL, srv.Client())
	err := m.Send(context.Background(), Message{To: []string{"a@b.dz"}, Subject: "New Order", HTML: "<p>x</p>"})
	require.NoError(t, err)

	assert.Equal(t, "Shop <orders@shop.dz>", got.From)
	assert.Equal(t, []string{"a@b.dz"}, got.To)
	assert.Equal(t, "New Order", got.Subject)
}

func TestResendMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test", "x@y.dz", srv.URL, srv.Client())
	err := m.Send(context.Background(), Message{To: []string{"a@b.dz"}})
	assert.ErrorContains(t, err, "invalid from")
}

func TestResendMailer_NoKey(t *testing.T) {
	m := NewResendMailer("", "x@y.dz", "http://unused", http.DefaultClient)
	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNotConfigured)
}

func TestSMTPMailer_BuildsAlternativeBody(t *testing.T) {
	var raw []byte
	var envelopeFrom string
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.local", Port: "587", Username: "u", Password: "p", From: "Shop <orders@shop.dz>"})
	m.send = func(_ string, _ smtp.Auth, from string, _ []string, msg []byte) error {
		envelopeFrom, raw = from, msg
		return nil
	}

	err := m.Send(context.Background(), Message{To: []string{"a@b.dz"}, Subject: "Hi", HTML: "<b>hi</b>", Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "orders@shop.dz", envelopeFrom)
	body := string(raw)
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "<b>hi</b>")
	assert.True(t, strings.Index(body, "text/plain") < strings.Index(body, "text/html"))
}

func TestSMTPMailer_NotConfigured(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{})
	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNotConfigured)
}

func TestBuildMIME_SinglePart(t *testing.T) {
	raw, err := buildMIME("a@b.dz", Message{To: []string{"c@d.dz"}, Subject: "S", Text: "plain"}, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Content-Type: text/plain")
	assert.NotContains(t, string(raw), "multipart")
}
