package email

import (
	"fmt"
	"html"

	"pecommunity/internal/config"
	"pecommunity/internal/models"
)

// Templates renders notification emails.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in the shared HTML email layout.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #16a34a; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { padding: 15px; text-align: center; font-size: 12px; color: #6b7280; }
        .button { display: inline-block; background: #16a34a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; }
        .card { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; }
        .approved { color: #059669; }
        .rejected { color: #dc2626; }
    </style>
</head>
<body>
    <div class="header"><h1>%s</h1></div>
    <div class="content">%s</div>
    <div class="footer"><p>%s &middot; <a href="%s">%s</a></p></div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content,
		html.EscapeString(t.cfg.SiteTitle), t.cfg.BaseURL, t.cfg.BaseURL)
}

func (t *Templates) footerText() string {
	return fmt.Sprintf("\n--\n%s\n%s", t.cfg.SiteTitle, t.cfg.BaseURL)
}

// requestCard renders the fields shared by every request email.
func requestCard(req *models.ContentRequest, extra string) string {
	return fmt.Sprintf(`
        <div class="card">
            <p><span class="label">Title:</span> %s</p>
            <p><span class="label">Type:</span> %s</p>
            <p><span class="label">Stage / category:</span> %s / %s</p>
            <p><span class="label">Link:</span> <a href="%s">%s</a></p>
            %s
        </div>`,
		html.EscapeString(req.Title),
		html.EscapeString(req.Type),
		html.EscapeString(req.StageID),
		html.EscapeString(req.CategoryID),
		html.EscapeString(req.URL),
		html.EscapeString(req.URL),
		extra,
	)
}

// RequestSubmitted is sent to admins when a teacher submits content for review.
func (t *Templates) RequestSubmitted(req *models.ContentRequest, submitter *models.Profile) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] New content request: %s", t.cfg.SiteTitle, req.Title)

	who := fmt.Sprintf("%s (%s)", submitter.DisplayName(), submitter.Email)
	content := fmt.Sprintf(`
        <p>A new content request is waiting for review.</p>
        %s
        <p style="text-align: center;"><a href="%s/admin" class="button">Review requests</a></p>`,
		requestCard(req, fmt.Sprintf(`<p><span class="label">Submitted by:</span> %s</p>`, html.EscapeString(who))),
		t.cfg.BaseURL,
	)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`New content request

Title: %s
Type: %s
Stage / category: %s / %s
Link: %s
Submitted by: %s

Review at: %s/admin
%s`,
		req.Title, req.Type, req.StageID, req.CategoryID, req.URL, who, t.cfg.BaseURL, t.footerText())
	return
}

// RequestApproved is sent to the requester once their content is published.
func (t *Templates) RequestApproved(req *models.ContentRequest) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your content '%s' is now published", t.cfg.SiteTitle, req.Title)

	browse := fmt.Sprintf("%s/stages/%s/categories/%s", t.cfg.BaseURL, req.StageID, req.CategoryID)
	content := fmt.Sprintf(`
        <p>Your content request was approved and is now visible to everyone.</p>
        %s
        <p style="text-align: center;"><a href="%s" class="button">View it</a></p>`,
		requestCard(req, `<p><span class="label">Status:</span> <span class="approved">Approved</span></p>`),
		html.EscapeString(browse),
	)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Your content was approved

Title: %s
Status: Approved

View it at: %s
%s`, req.Title, browse, t.footerText())
	return
}

// RequestRejected is sent to the requester when a request is declined.
func (t *Templates) RequestRejected(req *models.ContentRequest, reason string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your content '%s' was not approved", t.cfg.SiteTitle, req.Title)

	extra := `<p><span class="label">Status:</span> <span class="rejected">Rejected</span></p>`
	reasonText := ""
	if reason != "" {
		extra += fmt.Sprintf(`<p><span class="label">Reason:</span> %s</p>`, html.EscapeString(reason))
		reasonText = "\nReason: " + reason
	}

	content := fmt.Sprintf(`
        <p>Unfortunately your content request was not approved.</p>
        %s
        <p>You are welcome to submit it again with changes.</p>`,
		requestCard(req, extra),
	)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Your content was not approved

Title: %s
Status: Rejected%s

You are welcome to submit it again with changes.
%s`, req.Title, reasonText, t.footerText())
	return
}

// ContactMessage forwards a contact-form message to admins.
func (t *Templates) ContactMessage(msg *models.Message, senderEmail string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Contact: %s", t.cfg.SiteTitle, msg.Subject)

	from := senderEmail
	if from == "" {
		from = "anonymous visitor"
	}
	content := fmt.Sprintf(`
        <p>New message from %s:</p>
        <div class="card"><p><span class="label">%s</span></p><p>%s</p></div>`,
		html.EscapeString(from),
		html.EscapeString(msg.Subject),
		html.EscapeString(msg.Message),
	)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf("New message from %s\n\n%s\n\n%s\n%s", from, msg.Subject, msg.Message, t.footerText())
	return
}
