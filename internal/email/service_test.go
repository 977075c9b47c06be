package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memberbase/memberbase/internal/config"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
)

func newDisabledService(t *testing.T) *Service {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Email.Enabled = false
	return NewService(NewClient(cfg), logger.NewNopLogger())
}

func TestSendTemplateUnknownTemplate(t *testing.T) {
	svc := newDisabledService(t)

	err := svc.SendTemplate(context.Background(), "a@example.com", "nonexistent", nil)
	assert.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}

func TestSendTemplateDisabledClientSkips(t *testing.T) {
	svc := newDisabledService(t)

	// Disabled environments log and skip instead of failing lifecycle flows.
	err := svc.SendTemplate(context.Background(), "a@example.com", TemplateExpired, map[string]interface{}{
		"site_name":    "Memberbase",
		"member_name":  "mem_1",
		"member_email": "a@example.com",
		"login_url":    "https://example.com/login",
	})
	assert.NoError(t, err)
}

func TestRenderSubstitutesData(t *testing.T) {
	out, err := render("Hello {{.member_name}} at {{.site_name}}", map[string]interface{}{
		"member_name": "mem_1",
		"site_name":   "Memberbase",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Hello mem_1 at Memberbase", out)
}
