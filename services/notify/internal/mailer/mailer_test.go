package mailer

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/cinelist/pkg/config"
)

func TestNew_SelectsImplementation(t *testing.T) {
	assert.IsType(t, &DevMailer{}, New(config.EmailConfig{DevMode: true}))
	assert.IsType(t, &MailerSendClient{}, New(config.EmailConfig{MailerSendKey: "key", SMTPFrom: "no-reply@x.com"}))
	assert.IsType(t, &SMTPMailer{}, New(config.EmailConfig{SMTPHost: "localhost", SMTPPort: 1025}))
}

func TestDevMailer(t *testing.T) {
	var out bytes.Buffer
	m := NewDevMailer(&out)

	require.NoError(t, m.Send(context.Background(), "a@x.com", "Hello", "Body text"))
	assert.Contains(t, out.String(), "To: a@x.com")
	assert.Contains(t, out.String(), "Subject: Hello")
	assert.Contains(t, out.String(), "Body text")
}

func TestMailerSend_NotConfigured(t *testing.T) {
	m := NewMailerSend("", "Cinelist", "")
	assert.ErrorIs(t, m.Send(context.Background(), "a@x.com", "s", "b"), ErrNotConfigured)
}

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

func TestSMTPMailer_Send(t *testing.T) {
	var got capturedMail
	m := NewSMTPMailer(" localhost ", 1025, "no-reply@x.com", "", "", false)
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		got = capturedMail{addr, a, from, to, msg}
		return nil
	}

	require.NoError(t, m.Send(context.Background(), " a@x.com ", "Your Email Verification Captcha", "code 123456"))
	assert.Equal(t, "localhost:1025", got.addr)
	assert.Nil(t, got.auth)
	assert.Equal(t, []string{"a@x.com"}, got.to)

	msg := string(got.msg)
	assert.True(t, strings.HasPrefix(msg, "From: no-reply@x.com\r\n"))
	assert.Contains(t, msg, "To: a@x.com\r\n")
	assert.Contains(t, msg, "Subject: Your Email Verification Captcha\r\n")
	assert.Contains(t, msg, "\r\n\r\ncode 123456\r\n")
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer("smtp.x.com", 587, "no-reply@x.com", "user", "pass", false)
	calls := 0
	m.sendMail = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		calls++
		assert.NotNil(t, a)
		return errors.New("relay denied")
	}

	assert.Error(t, m.Send(context.Background(), "", "s", "b"))
	assert.Zero(t, calls)

	assert.EqualError(t, m.Send(context.Background(), "a@x.com", "s", "b"), "relay denied")
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "a@x.com", "s", "b"), context.Canceled)
}
