package mailer

import (
	"log"

	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// NoopMailer is used when SMTP is not configured; sends are logged and
// skipped rather than failing the caller.
type NoopMailer struct {
	log *log.Logger
}

func NewNoopMailer(logger *log.Logger) *NoopMailer {
	return &NoopMailer{log: logger}
}

func (m *NoopMailer) Send(to, subject, body string) error {
	m.log.Printf("mail skipped (SMTP not configured): to=%s subject=%q", to, subject)
	return nil
}
