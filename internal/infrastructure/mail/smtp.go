package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"arxivmonitor/internal/config"
	"arxivmonitor/internal/ports"
)

// SMTPMailer delivers digests through an authenticated SMTP relay.
type SMTPMailer struct {
	smtp       config.SMTPSettings
	recipients []string
}

var _ ports.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer wires transport settings and the recipient list.
func NewSMTPMailer(smtp config.SMTPSettings, recipients []string) *SMTPMailer {
	return &SMTPMailer{smtp: smtp, recipients: recipients}
}

// Send delivers one HTML message to every configured recipient. The dial,
// STARTTLS upgrade, login, and send are one synchronous round trip; any
// failure leaves the digest unsent as a whole.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.Message) error {
	if err := m.checkConfig(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.smtp.Sender)
	message.SetHeader("To", m.recipients...)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", msg.HTML)

	dialer := gomail.NewDialer(m.smtp.Server, m.smtp.Port, m.smtp.Username, m.smtp.Password)
	if err := dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}

func (m *SMTPMailer) checkConfig() error {
	var missing []string
	if m.smtp.Server == "" {
		missing = append(missing, "SMTP_SERVER")
	}
	if m.smtp.Username == "" {
		missing = append(missing, "SMTP_USERNAME")
	}
	if m.smtp.Password == "" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if m.smtp.Sender == "" {
		missing = append(missing, "SENDER_EMAIL")
	}
	if len(m.recipients) == 0 {
		missing = append(missing, "RECIPIENT_EMAILS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("mail configuration incomplete: missing %v", missing)
	}
	return nil
}
