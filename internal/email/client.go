package email

import (
	"context"

	"github.com/resend/resend-go/v2"
	"golang.org/x/time/rate"

	"github.com/memberbase/memberbase/internal/config"
	ierr "github.com/memberbase/memberbase/internal/errors"
)

// Client wraps the Resend API client. Outbound sends are rate limited so a
// large warning batch cannot trip the provider's limits.
type Client struct {
	client      *resend.Client
	fromAddress string
	enabled     bool
	limiter     *rate.Limiter
}

// NewClient creates a new email client from configuration
func NewClient(cfg *config.Configuration) *Client {
	rps := cfg.Email.RatePerSecond
	if rps <= 0 {
		rps = 1
	}

	var client *resend.Client
	if cfg.Email.Enabled {
		client = resend.NewClient(cfg.Email.APIKey)
	}

	return &Client{
		client:      client,
		fromAddress: cfg.Email.FromAddress,
		enabled:     cfg.Email.Enabled,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// IsEnabled reports whether outbound email is configured
func (c *Client) IsEnabled() bool {
	return c.enabled && c.client != nil
}

// GetFromAddress returns the configured from address
func (c *Client) GetFromAddress() string {
	return c.fromAddress
}

// SendEmail sends a single email and returns the provider message ID
func (c *Client) SendEmail(ctx context.Context, from, to, subject, html, text string) (string, error) {
	if !c.IsEnabled() {
		return "", ierr.NewError("email client is disabled").
			WithHint("Enable email and configure an API key to send emails").
			Mark(ierr.ErrInvalidOperation)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", ierr.WithError(err).
			WithHint("Email send cancelled while waiting for rate limiter").
			Mark(ierr.ErrHTTPClient)
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Email provider rejected the send").
			WithReportableDetails(map[string]interface{}{
				"to":      to,
				"subject": subject,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return sent.Id, nil
}
