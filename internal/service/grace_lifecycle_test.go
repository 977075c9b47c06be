package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/memberbase/memberbase/internal/api/dto"
	"github.com/memberbase/memberbase/internal/cache"
	"github.com/memberbase/memberbase/internal/domain/level"
	"github.com/memberbase/memberbase/internal/domain/membership"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/testutil"
	"github.com/memberbase/memberbase/internal/types"
)

type GraceLifecycleServiceSuite struct {
	testutil.BaseServiceTestSuite
	service GraceLifecycleService
}

func TestGraceLifecycleService(t *testing.T) {
	suite.Run(t, new(GraceLifecycleServiceSuite))
}

func (s *GraceLifecycleServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewGraceLifecycleService(s.params())
}

func (s *GraceLifecycleServiceSuite) params() ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		Clock:          s.GetClock(),
		Cache:          cache.NewInMemoryCache(),
		GraceRepo:      stores.Grace,
		MembershipRepo: stores.Membership,
		LevelRepo:      stores.Level,
		PaymentRepo:    stores.Payment,
		EmailSender:    s.GetEmailSender(),
	}
}

func (s *GraceLifecycleServiceSuite) seedMonthlyLevel() *level.MembershipLevel {
	lvl := &level.MembershipLevel{
		ID:          "level_monthly",
		Name:        "Monthly",
		PeriodUnit:  types.BILLING_PERIOD_MONTH,
		PeriodCount: 1,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().Level.Create(s.GetContext(), lvl))
	return lvl
}

func (s *GraceLifecycleServiceSuite) seedMember(memberID string, endDate *time.Time) *membership.Membership {
	m := &membership.Membership{
		MemberID:         memberID,
		MemberEmail:      memberID + "@example.com",
		LevelID:          "level_monthly",
		EndDate:          endDate,
		MembershipStatus: types.MembershipStatusActive,
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().Membership.Create(s.GetContext(), m))
	return m
}

func (s *GraceLifecycleServiceSuite) TestEnterGraceAnchorsWindowToOriginalEndDate() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.GetClock().Set(time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC))

	err := s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly")
	s.NoError(err)

	entry, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)
	s.Equal(types.GraceStateActive, entry.State)
	s.Equal("level_monthly", entry.LevelID)
	s.NotNil(entry.OriginalEndDate)
	s.True(entry.OriginalEndDate.Equal(originalEnd))
	s.True(entry.GraceEndDate.Equal(time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)))

	m, err := s.GetStores().Membership.GetByMemberID(s.GetContext(), "member-1")
	s.NoError(err)
	s.NotNil(m.EndDate)
	s.True(m.EndDate.Equal(entry.GraceEndDate))
	s.Equal(types.MembershipStatusActive, m.MembershipStatus)
}

func (s *GraceLifecycleServiceSuite) TestEnterGraceIsIdempotentForSameLevel() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)

	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))
	first, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)

	// The membership now ends at the grace end date; a repeated end-of-term
	// event for the same level must not re-stamp the original end date off
	// the extended one.
	s.GetClock().Advance(24 * time.Hour)
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	second, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)
	s.True(second.OriginalEndDate.Equal(*first.OriginalEndDate))
	s.True(second.GraceEndDate.Equal(first.GraceEndDate))
}

func (s *GraceLifecycleServiceSuite) TestEnterGraceNonExpiringMembership() {
	s.seedMonthlyLevel()
	s.seedMember("member-1", nil)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	s.GetClock().Set(now)

	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	entry, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)
	s.Nil(entry.OriginalEndDate)
	s.True(entry.GraceEndDate.Equal(now.AddDate(0, 0, 28)))
}

func (s *GraceLifecycleServiceSuite) TestEnterGraceValidation() {
	err := s.service.EnterGrace(s.GetContext(), "", "level_monthly")
	s.Error(err)
	s.True(ierr.IsValidation(err))

	err = s.service.EnterGrace(s.GetContext(), "member-1", "")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *GraceLifecycleServiceSuite) TestEnterGraceUnknownMember() {
	err := s.service.EnterGrace(s.GetContext(), "ghost", "level_monthly")
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	_, err = s.GetStores().Grace.Get(s.GetContext(), "ghost")
	s.True(ierr.IsNotFound(err))
}

func (s *GraceLifecycleServiceSuite) TestEnterGraceLedgerFailureRollsBackExtension() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.GetStores().Grace.FailUpsert = true

	err := s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly")
	s.Error(err)

	// The extension was rolled back, so nothing records the member as being
	// in grace and the stored end date is unchanged.
	m, getErr := s.GetStores().Membership.GetByMemberID(s.GetContext(), "member-1")
	s.NoError(getErr)
	s.True(m.EndDate.Equal(originalEnd))
	_, getErr = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(getErr))
}

func (s *GraceLifecycleServiceSuite) TestRunSweepFinalizesLapsedWindows() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	// One day before the window lapses nothing happens.
	finalized, err := s.service.RunSweep(s.GetContext(), time.Date(2025, 1, 28, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Empty(finalized)

	finalized, err = s.service.RunSweep(s.GetContext(), time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Equal([]string{"member-1"}, finalized)

	m, err := s.GetStores().Membership.GetByMemberID(s.GetContext(), "member-1")
	s.NoError(err)
	s.Equal(types.MembershipStatusCancelled, m.MembershipStatus)
	s.Empty(m.LevelID)
	s.Nil(m.EndDate)

	// The entry survives in the exiting state until the notifier consumes it.
	entry, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)
	s.Equal(types.GraceStateExiting, entry.State)

	// A second sweep is a no-op for the same member.
	finalized, err = s.service.RunSweep(s.GetContext(), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Empty(finalized)
}

func (s *GraceLifecycleServiceSuite) TestRunSweepLeavesEntryOnLevelMismatch() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	// The member changed levels out-of-band after entering grace.
	s.NoError(s.GetStores().Membership.ChangeLevel(
		s.GetContext(), "member-1", "level_annual",
		lo.ToPtr(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		types.MembershipStatusActive,
	))

	finalized, err := s.service.RunSweep(s.GetContext(), time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Empty(finalized)

	entry, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)
	s.Equal(types.GraceStateActive, entry.State)

	m, err := s.GetStores().Membership.GetByMemberID(s.GetContext(), "member-1")
	s.NoError(err)
	s.Equal(types.MembershipStatusActive, m.MembershipStatus)
}

func (s *GraceLifecycleServiceSuite) TestRunSweepCancellationFailureRestoresEntry() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	s.GetStores().Membership.FailChangeLevel = true
	finalized, err := s.service.RunSweep(s.GetContext(), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Empty(finalized)

	// The entry is back in the active state so the next sweep retries.
	entry, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)
	s.Equal(types.GraceStateActive, entry.State)

	s.GetStores().Membership.FailChangeLevel = false
	finalized, err = s.service.RunSweep(s.GetContext(), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Equal([]string{"member-1"}, finalized)
}

func (s *GraceLifecycleServiceSuite) TestSweepFinalityAllowsExpiredNotificationOnce() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	gate := NewNotificationService(s.params())

	// Suppressed while the window is open.
	allowed, err := gate.ShouldSendExpiredNotification(s.GetContext(), "member-1")
	s.NoError(err)
	s.False(allowed)

	finalized, err := s.service.RunSweep(s.GetContext(), time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Equal([]string{"member-1"}, finalized)

	// The final notice goes out exactly once; the marker is consumed.
	allowed, err = gate.ShouldSendExpiredNotification(s.GetContext(), "member-1")
	s.NoError(err)
	s.True(allowed)
	_, err = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(err))
}

func (s *GraceLifecycleServiceSuite) TestForceExpire() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	s.NoError(s.service.ForceExpire(s.GetContext(), "member-1"))

	m, err := s.GetStores().Membership.GetByMemberID(s.GetContext(), "member-1")
	s.NoError(err)
	s.Equal(types.MembershipStatusCancelled, m.MembershipStatus)

	// Not in an active grace period anymore.
	err = s.service.ForceExpire(s.GetContext(), "member-1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *GraceLifecycleServiceSuite) TestResetGrace() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	s.NoError(s.service.ResetGrace(s.GetContext(), "member-1"))
	_, err := s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(err))

	// Resetting a member with no bookkeeping is a no-op.
	s.NoError(s.service.ResetGrace(s.GetContext(), "member-1"))
}

func (s *GraceLifecycleServiceSuite) TestGetGraceStatus() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)

	status, err := s.service.GetGraceStatus(s.GetContext(), "member-1")
	s.NoError(err)
	s.False(status.InGrace)
	s.Equal("member-1", status.MemberID)

	s.GetClock().Set(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	// 27 whole days between Jan 2 and the Jan 29 grace end.
	status, err = s.service.GetGraceStatus(s.GetContext(), "member-1")
	s.NoError(err)
	s.True(status.InGrace)
	s.Equal(types.GraceStateActive, status.State)
	s.Equal("Monthly", status.LevelName)
	s.Equal(27, status.DaysLeft)
}

func (s *GraceLifecycleServiceSuite) TestListMembers() {
	s.seedMonthlyLevel()
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedMember("member-1", &originalEnd)
	s.seedMember("member-2", lo.ToPtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	s.NoError(s.service.EnterGrace(s.GetContext(), "member-1", "level_monthly"))

	rows, err := s.service.ListMembers(s.GetContext())
	s.NoError(err)
	s.Len(rows, 2)

	byID := lo.KeyBy(rows, func(r *dto.GraceMemberResponse) string { return r.MemberID })
	s.NotNil(byID["member-1"].Grace)
	s.True(byID["member-1"].Grace.InGrace)
	s.Nil(byID["member-2"].Grace)
	s.Equal("Monthly", byID["member-2"].LevelName)
}
