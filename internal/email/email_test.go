package email

import (
	"strings"
	"testing"

	"pecommunity/internal/config"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
	}{
		{
			name: "enabled when all SMTP settings configured",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPHost:    "smtp.example.com",
				SMTPPort:    587,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: true,
		},
		{
			name: "disabled when SMTPEnabled is false",
			cfg: &config.Config{
				SMTPHost: "smtp.example.com",
				SMTPFrom: "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name: "disabled when SMTPHost is empty",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name: "disabled when SMTPFrom is empty",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPHost:    "smtp.example.com",
			},
			wantEnabled: false,
		},
		{
			name:        "disabled with empty config",
			cfg:         &config.Config{},
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.cfg)
			if s.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", s.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestService_SendEmail_Disabled(t *testing.T) {
	s := NewService(&config.Config{})

	if err := s.SendEmail([]string{"a@example.com"}, "Subject", "<p>x</p>", "x"); err != nil {
		t.Errorf("SendEmail() on disabled service error = %v, want nil", err)
	}
	// No recipients is a no-op as well
	s.SendAsync(nil, "Subject", "", "")
}

func TestService_BuildMessage(t *testing.T) {
	s := NewService(&config.Config{
		SMTPFrom:     "noreply@pe.example.com",
		SMTPFromName: "PE Community",
	})

	msg := s.buildMessage([]string{"a@example.com", "b@example.com"}, "Hello", "<p>Hi</p>", "Hi")

	checks := []string{
		"From: PE Community <noreply@pe.example.com>\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: Hello\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: multipart/alternative; boundary=",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"<p>Hi</p>",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("buildMessage() missing %q", check)
		}
	}

	if strings.Index(msg, "text/plain") > strings.Index(msg, "text/html") {
		t.Error("buildMessage() plain text part should come before HTML")
	}
}

func TestService_BuildMessage_TextOnly(t *testing.T) {
	s := NewService(&config.Config{SMTPFrom: "noreply@pe.example.com"})

	msg := s.buildMessage([]string{"a@example.com"}, "Hello", "", "Hi")

	if !strings.Contains(msg, "From: noreply@pe.example.com\r\n") {
		t.Error("buildMessage() should use bare address when no from name is set")
	}
	if strings.Contains(msg, "text/html") {
		t.Error("buildMessage() should omit empty HTML part")
	}
}
