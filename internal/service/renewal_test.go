package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/memberbase/memberbase/internal/cache"
	"github.com/memberbase/memberbase/internal/domain/grace"
	"github.com/memberbase/memberbase/internal/domain/level"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/testutil"
	"github.com/memberbase/memberbase/internal/types"
)

type RenewalServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RenewalService
}

func TestRenewalService(t *testing.T) {
	suite.Run(t, new(RenewalServiceSuite))
}

func (s *RenewalServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewRenewalService(ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		Clock:          s.GetClock(),
		Cache:          cache.NewInMemoryCache(),
		GraceRepo:      stores.Grace,
		MembershipRepo: stores.Membership,
		LevelRepo:      stores.Level,
		PaymentRepo:    stores.Payment,
	})
}

func (s *RenewalServiceSuite) seedLevel(id string, unit types.BillingPeriodUnit, count int) {
	s.NoError(s.GetStores().Level.Create(s.GetContext(), &level.MembershipLevel{
		ID:          id,
		Name:        id,
		PeriodUnit:  unit,
		PeriodCount: count,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *RenewalServiceSuite) seedGraceEntry(memberID, levelID string, originalEnd *time.Time) {
	graceEnd := time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)
	if originalEnd != nil {
		graceEnd = originalEnd.AddDate(0, 0, 28)
	}
	s.NoError(s.GetStores().Grace.Upsert(s.GetContext(), &grace.Entry{
		MemberID:        memberID,
		LevelID:         levelID,
		OriginalEndDate: originalEnd,
		GraceEndDate:    graceEnd,
		State:           types.GraceStateActive,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *RenewalServiceSuite) TestNotInGraceKeepsProposedEndDate() {
	proposed := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_monthly", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.True(result.Equal(proposed))
}

func (s *RenewalServiceSuite) TestAnchorsToOriginalEndDate() {
	s.seedLevel("level_monthly", types.BILLING_PERIOD_MONTH, 1)
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedGraceEntry("member-1", "level_monthly", &originalEnd)
	s.GetClock().Set(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	// Paying mid-window yields original + one billing period, not payment
	// date + one billing period.
	proposed := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_monthly", s.GetClock().Now())
	s.NoError(err)
	s.True(result.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))

	// Grace bookkeeping is gone, so nothing suppresses future notifications.
	_, err = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(err))
}

func (s *RenewalServiceSuite) TestAnnualLevelAnchoring() {
	s.seedLevel("level_annual", types.BILLING_PERIOD_YEAR, 1)
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedGraceEntry("member-1", "level_annual", &originalEnd)
	s.GetClock().Set(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	proposed := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_annual", s.GetClock().Now())
	s.NoError(err)
	s.True(result.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func (s *RenewalServiceSuite) TestLevelMismatchKeepsProposedAndLedger() {
	s.seedLevel("level_monthly", types.BILLING_PERIOD_MONTH, 1)
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedGraceEntry("member-1", "level_monthly", &originalEnd)

	// The member is buying a different level; that purchase is not a grace
	// renewal and must not touch the bookkeeping.
	proposed := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_annual", s.GetClock().Now())
	s.NoError(err)
	s.True(result.Equal(proposed))

	_, err = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.NoError(err)
}

func (s *RenewalServiceSuite) TestNonExpiringLevelKeepsProposed() {
	s.seedLevel("level_lifetime", types.BILLING_PERIOD_MONTH, 0)
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedGraceEntry("member-1", "level_lifetime", &originalEnd)

	proposed := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_lifetime", s.GetClock().Now())
	s.NoError(err)
	s.True(result.Equal(proposed))

	_, err = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(err))
}

func (s *RenewalServiceSuite) TestLateRenewalFallsBackToProposed() {
	s.seedLevel("level_monthly", types.BILLING_PERIOD_MONTH, 1)
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedGraceEntry("member-1", "level_monthly", &originalEnd)

	// Renewing after the anchored candidate (Feb 1) has already passed must
	// not produce an end date in the past.
	s.GetClock().Set(time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	proposed := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_monthly", s.GetClock().Now())
	s.NoError(err)
	s.True(result.Equal(proposed))

	_, err = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(err))
}

func (s *RenewalServiceSuite) TestMissingOriginalEndDateKeepsProposed() {
	s.seedLevel("level_monthly", types.BILLING_PERIOD_MONTH, 1)
	s.seedGraceEntry("member-1", "level_monthly", nil)

	proposed := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_monthly", s.GetClock().Now())
	s.NoError(err)
	s.True(result.Equal(proposed))

	_, err = s.GetStores().Grace.Get(s.GetContext(), "member-1")
	s.True(ierr.IsNotFound(err))
}

func (s *RenewalServiceSuite) TestUnknownLevelKeepsProposed() {
	originalEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedGraceEntry("member-1", "level_gone", &originalEnd)

	proposed := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.RecalculateEndDate(s.GetContext(), proposed, "member-1", "level_gone", s.GetClock().Now())
	s.NoError(err)
	s.True(result.Equal(proposed))
}
