package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Email is one outbound message, body already tracking-injected
type Email struct {
	From     string
	FromName string
	To       string
	Subject  string
	Body     string
}

// Mailer sends one email and returns the provider message ID when the
// transport exposes one (empty for plain SMTP).
type Mailer interface {
	Send(email Email) (string, error)
}

// SMTPMailer delivers over a single SMTP account via gomail
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
	}
}

func (m *SMTPMailer) Send(email Email) (string, error) {
	msg := gomail.NewMessage()
	if email.FromName != "" {
		msg.SetHeader("From", fmt.Sprintf("%s <%s>", email.FromName, email.From))
	} else {
		msg.SetHeader("From", email.From)
	}
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.Body)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := d.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("error sending email to %s: %w", email.To, err)
	}

	// Plain SMTP has no provider-assigned ID to report
	return "", nil
}
