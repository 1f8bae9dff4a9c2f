// Package mail delivers account emails. The SMTP client is deliberately
// minimal: codes are short-lived, so delivery failures surface as one
// generic error and are never retried here.
package mail

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"cartly/api/internal/config"
)

var ErrDeliveryFailed = errors.New("email delivery failed")

// Notifier sends the two account lifecycle emails.
type Notifier interface {
	SendVerificationEmail(to string, name string, code string) error
	SendPasswordResetEmail(to string, name string, code string) error
}

type SMTPNotifier struct {
	cfg config.MailConfig
	log zerolog.Logger
}

func NewSMTPNotifier(cfg config.MailConfig, log zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, log: log}
}

func (n *SMTPNotifier) SendVerificationEmail(to string, name string, code string) error {
	subject := "Verify your account"
	body := fmt.Sprintf("Hi %s,\r\n\r\nYour verification code is %s. It expires in 10 minutes.\r\n", name, code)
	return n.send(to, subject, body)
}

func (n *SMTPNotifier) SendPasswordResetEmail(to string, name string, code string) error {
	subject := "Reset your password"
	body := fmt.Sprintf("Hi %s,\r\n\r\nYour password reset code is %s. It expires in 10 minutes.\r\n", name, code)
	return n.send(to, subject, body)
}

func (n *SMTPNotifier) send(to string, subject string, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", n.cfg.From, to, subject, body)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg)); err != nil {
		n.log.Error().Err(err).Str("to", to).Msg("smtp send failed")
		return ErrDeliveryFailed
	}
	return nil
}

// LogNotifier is used when SMTP is not configured. It logs the code
// instead of sending it, which is what local development wants.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendVerificationEmail(to string, name string, code string) error {
	n.log.Info().Str("to", to).Str("code", code).Msg("verification email (log only)")
	return nil
}

func (n *LogNotifier) SendPasswordResetEmail(to string, name string, code string) error {
	n.log.Info().Str("to", to).Str("code", code).Msg("password reset email (log only)")
	return nil
}

// New picks the SMTP notifier when a host is configured, the log
// notifier otherwise.
func New(cfg config.MailConfig, log zerolog.Logger) Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg, log)
}
