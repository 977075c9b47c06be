package service

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/memberbase/memberbase/internal/cache"
	"github.com/memberbase/memberbase/internal/domain/payment"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/testutil"
	"github.com/memberbase/memberbase/internal/types"
)

type DonationReportServiceSuite struct {
	testutil.BaseServiceTestSuite
	service DonationReportService
}

func TestDonationReportService(t *testing.T) {
	suite.Run(t, new(DonationReportServiceSuite))
}

func (s *DonationReportServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewDonationReportService(ServiceParams{
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

func (s *DonationReportServiceSuite) seedOrder(id, email string, donation string, ts time.Time) {
	s.NoError(s.GetStores().Payment.Create(s.GetContext(), &payment.Order{
		ID:             id,
		MemberID:       "member-" + id,
		MemberEmail:    email,
		MemberName:     "Member " + id,
		LevelID:        "level_monthly",
		LevelName:      "Monthly",
		Amount:         decimal.NewFromInt(50),
		DonationAmount: decimal.RequireFromString(donation),
		Timestamp:      ts,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *DonationReportServiceSuite) seedOrders() {
	s.seedOrder("1", "a@example.com", "25.00", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	s.seedOrder("2", "b@example.com", "10.50", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC))
	s.seedOrder("3", "a@example.com", "0", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	s.seedOrder("4", "c@example.com", "5.00", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
}

func (s *DonationReportServiceSuite) TestReportSkipsOrdersWithoutDonations() {
	s.seedOrders()

	report, err := s.service.GetReport(s.GetContext(), payment.DonationFilter{})
	s.NoError(err)
	s.Equal(3, report.Count)
	s.True(report.Total.Equal(decimal.RequireFromString("40.50")))
}

func (s *DonationReportServiceSuite) TestFiscalYearWindow() {
	s.seedOrders()

	// Fiscal 2024 runs July 1 2024 through June 30 2025.
	report, err := s.service.GetReport(s.GetContext(), payment.DonationFilter{Year: 2024})
	s.NoError(err)
	s.Equal(2, report.Count)
	s.True(report.Total.Equal(decimal.RequireFromString("35.50")))
}

func (s *DonationReportServiceSuite) TestCalendarYearWindow() {
	s.seedOrders()

	report, err := s.service.GetReport(s.GetContext(), payment.DonationFilter{
		Year:     2025,
		YearType: payment.YearTypeCalendar,
	})
	s.NoError(err)
	s.Equal(2, report.Count)
	s.True(report.Total.Equal(decimal.RequireFromString("15.50")))
}

func (s *DonationReportServiceSuite) TestMonthAndEmailFilters() {
	s.seedOrders()

	report, err := s.service.GetReport(s.GetContext(), payment.DonationFilter{Month: 2})
	s.NoError(err)
	s.Equal(1, report.Count)
	s.True(report.Total.Equal(decimal.RequireFromString("10.50")))

	report, err = s.service.GetReport(s.GetContext(), payment.DonationFilter{MemberEmail: "a@example.com"})
	s.NoError(err)
	s.Equal(1, report.Count)
	s.True(report.Total.Equal(decimal.RequireFromString("25.00")))
}

func (s *DonationReportServiceSuite) TestInvalidFilter() {
	_, err := s.service.GetReport(s.GetContext(), payment.DonationFilter{Month: 13})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.GetReport(s.GetContext(), payment.DonationFilter{Year: 2025, YearType: "quarterly"})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *DonationReportServiceSuite) TestExportCSV() {
	s.seedOrder("1", "a@example.com", "25.00", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC))

	out, err := s.service.ExportCSV(s.GetContext(), payment.DonationFilter{})
	s.NoError(err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	s.Len(lines, 2)
	s.Equal("date,member_name,member_email,membership_level,donation_amount", strings.TrimSpace(lines[0]))
	s.Equal("2025-02-03,Member 1,a@example.com,Monthly,25.00", strings.TrimSpace(lines[1]))
}
