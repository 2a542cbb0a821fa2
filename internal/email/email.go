package email

import (
	"crypto/tls"
	"fmt"
	"log"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/google/uuid"

	"pecommunity/internal/config"
)

// Service sends email over SMTP.
type Service struct {
	cfg     *config.Config
	enabled bool
}

// NewService creates a new email service.
func NewService(cfg *config.Config) *Service {
	s := &Service{
		cfg:     cfg,
		enabled: cfg.IsEmailEnabled(),
	}

	if s.enabled {
		log.Printf("Email notifications enabled (SMTP: %s:%d)", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		log.Println("Email notifications disabled (SMTP not configured)")
	}

	return s
}

// IsEnabled returns true if email is enabled.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// buildMessage renders a multipart/alternative MIME message.
func (s *Service) buildMessage(to []string, subject, htmlBody, textBody string) string {
	from := s.cfg.SMTPFrom
	if s.cfg.SMTPFromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.SMTPFromName, s.cfg.SMTPFrom)
	}

	boundary := "pecommunity-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	part := func(contentType, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", contentType)
		msg.WriteString(body)
		msg.WriteString("\r\n")
	}
	part("text/plain", textBody)
	part("text/html", htmlBody)

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.String()
}

// SendEmail sends an email to the specified recipients.
func (s *Service) SendEmail(to []string, subject, htmlBody, textBody string) error {
	if !s.enabled || len(to) == 0 {
		return nil
	}

	msg := s.buildMessage(to, subject, htmlBody, textBody)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" && s.cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	tlsConfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	switch s.cfg.SMTPTLS {
	case "tls":
		// Implicit TLS, usually port 465
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS dial failed: %w", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("SMTP client failed: %w", err)
		}
		return s.deliver(client, auth, to, msg)
	case "starttls":
		client, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP dial failed: %w", err)
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
		return s.deliver(client, auth, to, msg)
	default: // "none"
		return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, to, []byte(msg))
	}
}

// deliver runs the SMTP transaction on an established client and closes it.
func (s *Service) deliver(client *smtp.Client, auth smtp.Auth, to []string, msg string) error {
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("SMTP MAIL failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("SMTP write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("SMTP close failed: %w", err)
	}

	return client.Quit()
}

// SendAsync sends an email in the background; failures are only logged.
func (s *Service) SendAsync(to []string, subject, htmlBody, textBody string) {
	if !s.enabled || len(to) == 0 {
		return
	}

	go func() {
		if err := s.SendEmail(to, subject, htmlBody, textBody); err != nil {
			slog.Error("failed to send email", "to", to, "subject", subject, "error", err)
			return
		}
		slog.Info("email sent", "to", to, "subject", subject)
	}()
}
