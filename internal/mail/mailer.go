package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"log/slog"
)

// Notifier delivers a message to a recipient. Delivery success is not
// verified beyond the send attempt.
type Notifier interface {
	Send(ctx context.Context, subject, recipient, body string) error
}

// SMTPMailer sends HTML mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, from string, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// Send delivers the message synchronously. The context only bounds
// the caller; net/smtp has no cancellation hook.
func (m *SMTPMailer) Send(_ context.Context, subject, recipient, body string) error {
	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + recipient + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, []byte(msg.String())); err != nil {
		m.logger.Error("smtp send failed", "recipient", recipient, "error", err)
		return fmt.Errorf("send mail: %w", err)
	}
	m.logger.Info("mail sent", "recipient", recipient, "subject", subject)
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
// Used in development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send records the message and always succeeds.
func (m *LogMailer) Send(_ context.Context, subject, recipient, body string) error {
	m.logger.Info("mail simulated", "recipient", recipient, "subject", subject, "body", body)
	return nil
}
