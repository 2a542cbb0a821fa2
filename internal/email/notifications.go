package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"pecommunity/internal/config"
	"pecommunity/internal/models"
)

// ProfileGetter looks up email recipients.
type ProfileGetter interface {
	GetAdmins(ctx context.Context) ([]models.Profile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Notifier sends email notifications for content request events.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config
	db        ProfileGetter
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db ProfileGetter) *Notifier {
	return &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
		db:        db,
	}
}

func (n *Notifier) adminEmails(ctx context.Context) []string {
	admins, err := n.db.GetAdmins(ctx)
	if err != nil {
		slog.Error("failed to load admin emails", "error", err)
		return nil
	}
	var emails []string
	for _, a := range admins {
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}
	return emails
}

func (n *Notifier) requesterEmail(ctx context.Context, req *models.ContentRequest) string {
	if req.AuthorEmail != "" {
		return req.AuthorEmail
	}
	p, err := n.db.GetProfileByID(ctx, req.UserID)
	if err != nil {
		slog.Error("failed to load requester", "request_id", req.ID, "error", err)
		return ""
	}
	return p.Email
}

// NotifyRequestSubmitted emails admins that a request awaits review.
func (n *Notifier) NotifyRequestSubmitted(ctx context.Context, req *models.ContentRequest, submitter *models.Profile) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyAdminsOnSubmit || submitter == nil {
		return
	}

	emails := n.adminEmails(ctx)
	if len(emails) == 0 {
		slog.Warn("no admin emails found for request notification", "request_id", req.ID)
		return
	}

	subject, htmlBody, textBody := n.templates.RequestSubmitted(req, submitter)
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

// NotifyRequestApproved emails the requester that their content is live.
func (n *Notifier) NotifyRequestApproved(ctx context.Context, req *models.ContentRequest) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyUserOnApproval {
		return
	}

	to := n.requesterEmail(ctx, req)
	if to == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.RequestApproved(req)
	n.service.SendAsync([]string{to}, subject, htmlBody, textBody)
}

// NotifyRequestRejected emails the requester that their request was declined.
func (n *Notifier) NotifyRequestRejected(ctx context.Context, req *models.ContentRequest, reason string) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyUserOnRejection {
		return
	}

	to := n.requesterEmail(ctx, req)
	if to == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.RequestRejected(req, reason)
	n.service.SendAsync([]string{to}, subject, htmlBody, textBody)
}

// NotifyContactMessage forwards a contact-form message to admins.
func (n *Notifier) NotifyContactMessage(ctx context.Context, msg *models.Message, senderEmail string) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyAdminsOnSubmit {
		return
	}

	emails := n.adminEmails(ctx)
	if len(emails) == 0 {
		return
	}

	subject, htmlBody, textBody := n.templates.ContactMessage(msg, senderEmail)
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}
