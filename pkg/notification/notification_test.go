package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytekstore/bytek/pkg/mail"
)

type fakeMailer struct {
	got []mail.Message
	err error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.got = append(m.got, msg)
	return nil
}

type note struct {
	err error
}

func (note) Kind() string { return "test" }

func (n note) ToMail() (MailData, error) {
	return MailData{Subject: "Hi", Body: "<p>hi</p>", Text: "hi"}, n.err
}

func TestSender_Send(t *testing.T) {
	m := &fakeMailer{}
	s := NewSender(m, "Shop <a@shop.dz>")

	require.NoError(t, s.Send(context.Background(), []string{" x@y.dz ", ""}, note{}))
	require.Len(t, m.got, 1)
	assert.Equal(t, []string{"x@y.dz"}, m.got[0].To)
	assert.Equal(t, "Shop <a@shop.dz>", m.got[0].From)
	assert.Equal(t, "<p>hi</p>", m.got[0].HTML)
	assert.Equal(t, "hi", m.got[0].Text)
}

func TestSender_Skips(t *testing.T) {
	m := &fakeMailer{}
	s := NewSender(m, "a@shop.dz")

	assert.NoError(t, s.Send(context.Background(), []string{"  "}, note{}))
	assert.Empty(t, m.got)

	m.err = mail.ErrNotConfigured
	assert.NoError(t, s.Send(context.Background(), []string{"x@y.dz"}, note{}))
}

func TestSender_Failures(t *testing.T) {
	m := &fakeMailer{err: errors.New("boom")}
	s := NewSender(m, "a@shop.dz")
	assert.ErrorContains(t, s.Send(context.Background(), []string{"x@y.dz"}, note{}), "boom")

	m.err = nil
	assert.Error(t, s.Send(context.Background(), []string{"x@y.dz"}, note{err: errors.New("bad template")}))
	assert.Empty(t, m.got)
}
