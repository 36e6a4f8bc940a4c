package mail

import (
	"context"
	"strings"
	"testing"

	"arxivmonitor/internal/config"
	"arxivmonitor/internal/ports"
)

func fullSettings() config.SMTPSettings {
	return config.SMTPSettings{
		Server:   "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "secret",
		Sender:   "digest@example.com",
	}
}

func TestSendRejectsIncompleteConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*config.SMTPSettings)
		noRcpt  bool
		missing string
	}{
		{"no server", func(s *config.SMTPSettings) { s.Server = "" }, false, "SMTP_SERVER"},
		{"no username", func(s *config.SMTPSettings) { s.Username = "" }, false, "SMTP_USERNAME"},
		{"no password", func(s *config.SMTPSettings) { s.Password = "" }, false, "SMTP_PASSWORD"},
		{"no sender", func(s *config.SMTPSettings) { s.Sender = "" }, false, "SENDER_EMAIL"},
		{"no recipients", func(*config.SMTPSettings) {}, true, "RECIPIENT_EMAILS"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := fullSettings()
			tc.mutate(&settings)
			recipients := []string{"reader@example.com"}
			if tc.noRcpt {
				recipients = nil
			}

			mailer := NewSMTPMailer(settings, recipients)
			err := mailer.Send(context.Background(), ports.Message{Subject: "s", HTML: "<p>x</p>"})
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !strings.Contains(err.Error(), tc.missing) {
				t.Errorf("error should name %s, got %v", tc.missing, err)
			}
		})
	}
}

func TestSendHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mailer := NewSMTPMailer(fullSettings(), []string{"reader@example.com"})
	if err := mailer.Send(ctx, ports.Message{Subject: "s", HTML: "<p>x</p>"}); err == nil {
		t.Fatal("expected context error before dialing")
	}
}
