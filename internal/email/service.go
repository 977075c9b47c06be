package email

import (
	"bytes"
	"context"
	"html/template"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
)

// Template IDs for membership lifecycle emails. The warning templates are
// referenced by the expiration warning schedule; membership_expired is the
// final notice sent when a grace period ends.
const (
	TemplateExpiring28 = "expiring_28"
	TemplateExpiring10 = "expiring_10"
	TemplateExpired    = "membership_expired"
)

type emailTemplate struct {
	Subject string
	Body    string
}

// emailTemplates stores email templates as string constants
var emailTemplates = map[string]emailTemplate{
	TemplateExpiring28: {
		Subject: "Your membership at {{.site_name}} will end soon.",
		Body: `<p>Thank you for your membership to {{.site_name}}. This is just a reminder that your membership will end on {{.end_date}}.</p>
<p>Account: {{.member_name}} ({{.member_email}})</p>
<p>Membership Level: {{.level_name}}</p>
<p>Log in to your membership account here: <a href="{{.login_url}}">{{.login_url}}</a></p>`,
	},
	TemplateExpiring10: {
		Subject: "Your membership at {{.site_name}} will end soon.",
		Body: `<p>Thank you for your membership to {{.site_name}}. This is just a reminder that your membership will end on {{.end_date}}.</p>
<p>Account: {{.member_name}} ({{.member_email}})</p>
<p>Membership Level: {{.level_name}}</p>
<p>Log in to your membership account here: <a href="{{.login_url}}">{{.login_url}}</a></p>`,
	},
	TemplateExpired: {
		Subject: "Your membership at {{.site_name}} has ended.",
		Body: `<p>Your membership at {{.site_name}} has ended.</p>
<p>Account: {{.member_name}} ({{.member_email}})</p>
<p>You can renew at any time by logging in here: <a href="{{.login_url}}">{{.login_url}}</a></p>`,
	},
}

// Sender dispatches a templated lifecycle email to a single recipient.
// Implementations must be safe for concurrent use.
type Sender interface {
	SendTemplate(ctx context.Context, to, templateID string, data map[string]interface{}) error
}

// Service renders lifecycle templates and sends them through the client.
type Service struct {
	client *Client
	logger *logger.Logger
}

// NewService creates a new email service
func NewService(client *Client, logger *logger.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// SendTemplate renders the template with the given data and sends it.
// When the client is disabled the send is logged and skipped without error,
// matching how non-production environments run.
func (s *Service) SendTemplate(ctx context.Context, to, templateID string, data map[string]interface{}) error {
	tmpl, exists := emailTemplates[templateID]
	if !exists {
		return ierr.NewErrorf("email template not found: %s", templateID).
			WithHint("Unknown email template ID").
			WithReportableDetails(map[string]interface{}{
				"template": templateID,
			}).
			Mark(ierr.ErrNotFound)
	}

	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", to,
			"template", templateID,
		)
		return nil
	}

	subject, err := render(tmpl.Subject, data)
	if err != nil {
		return err
	}
	body, err := render(tmpl.Body, data)
	if err != nil {
		return err
	}

	messageID, err := s.client.SendEmail(ctx, s.client.GetFromAddress(), to, subject, body, "")
	if err != nil {
		s.logger.Errorw("failed to send templated email",
			"error", err,
			"to", to,
			"template", templateID,
		)
		return err
	}

	s.logger.Infow("templated email sent",
		"message_id", messageID,
		"to", to,
		"template", templateID,
	)
	return nil
}

// render renders template content using html/template for safe HTML output
func render(content string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(content)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to parse email template").
			Mark(ierr.ErrInternal)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to render email template").
			Mark(ierr.ErrInternal)
	}
	return buf.String(), nil
}
