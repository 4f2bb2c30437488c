package service

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends transactional emails. Implementations must be safe for
// concurrent use; senders are called from background goroutines.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer is a plain SMTP implementation of Mailer.
type SMTPMailer struct {
	host string
	port string
	from string
	auth smtp.Auth
}

// NewSMTPMailer configures a mailer against the given SMTP server.
// Username and password are optional for servers without auth.
func NewSMTPMailer(host, port, from, username, password string) *SMTPMailer {
	m := &SMTPMailer{host: host, port: port, from: from}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers a single plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp mailer: send to %s: %w", to, err)
	}
	return nil
}

// NopMailer discards all messages. Used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) Send(string, string, string) error { return nil }
