// Package mailer delivers notification emails for the notify worker.
package mailer

import (
	"context"

	"github.com/diagnosis/cinelist/pkg/config"
	"github.com/diagnosis/cinelist/pkg/logger"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New picks a mailer from config: dev mode logs messages, a MailerSend key
// selects the API client, anything else goes through SMTP.
func New(cfg config.EmailConfig) Mailer {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer")
		return NewDevMailer(nil)
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend mailer")
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		logger.Info("Using SMTP mailer", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
