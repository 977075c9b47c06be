package service

import (
	"context"

	"github.com/gocarina/gocsv"

	"github.com/memberbase/memberbase/internal/api/dto"
	"github.com/memberbase/memberbase/internal/domain/payment"
	ierr "github.com/memberbase/memberbase/internal/errors"
)

// DonationReportService builds the donations report over committed payment
// records. It is a read-only query surface; nothing here mutates state.
type DonationReportService interface {
	// GetReport returns donation totals and rows for the filter.
	GetReport(ctx context.Context, filter payment.DonationFilter) (*dto.DonationReportResponse, error)

	// ExportCSV renders the filtered report as CSV for download.
	ExportCSV(ctx context.Context, filter payment.DonationFilter) ([]byte, error)
}

type donationReportService struct {
	ServiceParams
}

// NewDonationReportService creates a new donation report service
func NewDonationReportService(params ServiceParams) DonationReportService {
	return &donationReportService{ServiceParams: params}
}

func (s *donationReportService) GetReport(ctx context.Context, filter payment.DonationFilter) (*dto.DonationReportResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	orders, err := s.PaymentRepo.ListDonations(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.PaymentRepo.TotalDonations(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.DonationRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, dto.DonationRow{
			MemberID:    o.MemberID,
			MemberName:  o.MemberName,
			MemberEmail: o.MemberEmail,
			LevelName:   o.LevelName,
			Amount:      o.DonationAmount,
			Timestamp:   o.Timestamp,
		})
	}

	return &dto.DonationReportResponse{
		Total:     total,
		Count:     len(rows),
		Donations: rows,
	}, nil
}

// donationCSVRow is the CSV export shape; amounts are formatted as plain
// decimal strings so spreadsheets parse them as numbers.
type donationCSVRow struct {
	Date        string `csv:"date"`
	MemberName  string `csv:"member_name"`
	MemberEmail string `csv:"member_email"`
	Level       string `csv:"membership_level"`
	Amount      string `csv:"donation_amount"`
}

func (s *donationReportService) ExportCSV(ctx context.Context, filter payment.DonationFilter) ([]byte, error) {
	report, err := s.GetReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]*donationCSVRow, 0, len(report.Donations))
	for _, d := range report.Donations {
		rows = append(rows, &donationCSVRow{
			Date:        d.Timestamp.Format("2006-01-02"),
			MemberName:  d.MemberName,
			MemberEmail: d.MemberEmail,
			Level:       d.LevelName,
			Amount:      d.Amount.StringFixed(2),
		})
	}

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to render donations CSV").
			Mark(ierr.ErrInternal)
	}
	return out, nil
}
