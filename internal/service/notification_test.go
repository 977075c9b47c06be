package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/memberbase/memberbase/internal/cache"
	"github.com/memberbase/memberbase/internal/domain/grace"
	"github.com/memberbase/memberbase/internal/domain/level"
	"github.com/memberbase/memberbase/internal/domain/membership"
	"github.com/memberbase/memberbase/internal/email"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/testutil"
	"github.com/memberbase/memberbase/internal/types"
)

type NotificationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service NotificationService
}

func TestNotificationService(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewNotificationService(ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		Clock:          s.GetClock(),
		Cache:          cache.NewInMemoryCache(),
		GraceRepo:      stores.Grace,
		MembershipRepo: stores.Membership,
		LevelRepo:      stores.Level,
		PaymentRepo:    stores.Payment,
		EmailSender:    s.GetEmailSender(),
	})
}

func (s *NotificationServiceSuite) seedMember(memberID string, endDate *time.Time) {
	s.NoError(s.GetStores().Membership.Create(s.GetContext(), &membership.Membership{
		MemberID:         memberID,
		MemberEmail:      memberID + "@example.com",
		LevelID:          "level_monthly",
		EndDate:          endDate,
		MembershipStatus: types.MembershipStatusActive,
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *NotificationServiceSuite) seedGraceEntry(memberID string, state types.GraceState) {
	s.NoError(s.GetStores().Grace.Upsert(s.GetContext(), &grace.Entry{
		MemberID:     memberID,
		LevelID:      "level_monthly",
		GraceEndDate: time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC),
		State:        state,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *NotificationServiceSuite) TestDefaultSchedule() {
	schedule := s.service.Schedule()
	s.Len(schedule, 2)

	templateID, ok := schedule.TemplateFor(28)
	s.True(ok)
	s.Equal(email.TemplateExpiring28, templateID)

	templateID, ok = schedule.TemplateFor(10)
	s.True(ok)
	s.Equal(email.TemplateExpiring10, templateID)

	_, ok = schedule.TemplateFor(5)
	s.False(ok)
}

func (s *NotificationServiceSuite) TestGateAllowsByAbsence() {
	allowed, err := s.service.ShouldSendExpiredNotification(s.GetContext(), "member-1")
	s.NoError(err)
	s.True(allowed)
}

func (s *NotificationServiceSuite) TestGateSuppressesDuringGrace() {
	s.seedGraceEntry("member-1", types.GraceStateActive)

	allowed, err := s.service.ShouldSendExpiredNotification(s.GetContext(), "member-1")
	s.NoError(err)
	s.False(allowed)

	// Still suppressed on repeat checks while the window is open.
	allowed, err = s.service.ShouldSendExpiredNotification(s.GetContext(), "member-1")
	s.NoError(err)
	s.False(allowed)
}

func (s *NotificationServiceSuite) TestGateConsumesExitingMarkerOnce() {
	s.seedGraceEntry("member-1", types.GraceStateExiting)

	allowed, err := s.service.ShouldSendExpiredNotification(s.GetContext(), "member-1")
	s.NoError(err)
	s.True(allowed)

	// The marker was consumed; the entry is gone and the gate now allows by
	// absence rather than by marker.
	_, err = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(err))

	allowed, err = s.service.ShouldSendExpiredNotification(s.GetContext(), "member-1")
	s.NoError(err)
	s.True(allowed)
}

func (s *NotificationServiceSuite) TestSendExpiredNotificationSuppressed() {
	s.seedMember("member-1", nil)
	s.seedGraceEntry("member-1", types.GraceStateActive)

	s.NoError(s.service.SendExpiredNotification(s.GetContext(), "member-1"))
	s.Empty(s.GetEmailSender().Sent())
}

func (s *NotificationServiceSuite) TestSendExpiredNotificationOnExit() {
	s.seedMember("member-1", nil)
	s.seedGraceEntry("member-1", types.GraceStateExiting)

	s.NoError(s.service.SendExpiredNotification(s.GetContext(), "member-1"))

	sent := s.GetEmailSender().Sent()
	s.Len(sent, 1)
	s.Equal("member-1@example.com", sent[0].To)
	s.Equal(email.TemplateExpired, sent[0].TemplateID)
}

func (s *NotificationServiceSuite) TestSendExpirationWarnings() {
	s.NoError(s.GetStores().Level.Create(s.GetContext(), &level.MembershipLevel{
		ID:          "level_monthly",
		Name:        "Monthly",
		PeriodUnit:  types.BILLING_PERIOD_MONTH,
		PeriodCount: 1,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}))

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	endAt := func(days int) *time.Time {
		t := now.AddDate(0, 0, days)
		return &t
	}

	s.seedMember("member-28", endAt(28))
	s.seedMember("member-10", endAt(10))
	s.seedMember("member-5", endAt(5))
	s.seedMember("member-never", nil)

	// In grace with an end date 28 days out: reminders already went out
	// before the extension, so this member is skipped.
	s.seedMember("member-grace", endAt(28))
	s.seedGraceEntry("member-grace", types.GraceStateActive)

	sent, err := s.service.SendExpirationWarnings(s.GetContext(), now)
	s.NoError(err)
	s.Equal(2, sent)

	to28 := s.GetEmailSender().SentTo("member-28@example.com")
	s.Len(to28, 1)
	s.Equal(email.TemplateExpiring28, to28[0].TemplateID)
	s.Equal("Monthly", to28[0].Data["level_name"])

	to10 := s.GetEmailSender().SentTo("member-10@example.com")
	s.Len(to10, 1)
	s.Equal(email.TemplateExpiring10, to10[0].TemplateID)

	s.Empty(s.GetEmailSender().SentTo("member-5@example.com"))
	s.Empty(s.GetEmailSender().SentTo("member-never@example.com"))
	s.Empty(s.GetEmailSender().SentTo("member-grace@example.com"))
}

func (s *NotificationServiceSuite) TestSendExpirationWarningsCountsFailures() {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 10)
	s.seedMember("member-ok", &end)
	s.seedMember("member-bad", &end)
	s.GetEmailSender().FailFor["member-bad@example.com"] = true

	sent, err := s.service.SendExpirationWarnings(s.GetContext(), now)
	s.NoError(err)
	s.Equal(1, sent)
}
