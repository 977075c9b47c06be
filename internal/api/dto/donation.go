package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/memberbase/memberbase/internal/domain/payment"
	"github.com/memberbase/memberbase/internal/validator"
)

// DonationReportRequest filters the donations report. Month and year are
// optional; year_type selects fiscal (July-June, the default) or calendar
// interpretation of the year filter.
type DonationReportRequest struct {
	Month       int    `form:"month" json:"month,omitempty" validate:"min=0,max=12"`
	Year        int    `form:"year" json:"year,omitempty" validate:"min=0"`
	YearType    string `form:"year_type" json:"year_type,omitempty" validate:"omitempty,oneof=fiscal calendar"`
	MemberEmail string `form:"member_email" json:"member_email,omitempty" validate:"omitempty,email"`
}

// ToFilter converts the request to a domain filter.
func (r *DonationReportRequest) ToFilter() payment.DonationFilter {
	return payment.DonationFilter{
		Month:       r.Month,
		Year:        r.Year,
		YearType:    payment.YearType(r.YearType),
		MemberEmail: r.MemberEmail,
	}
}

// Validate validates the report request
func (r *DonationReportRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.ToFilter().Validate()
}

// DonationRow is one donation in the report.
type DonationRow struct {
	MemberID    string          `json:"member_id"`
	MemberName  string          `json:"member_name"`
	MemberEmail string          `json:"member_email"`
	LevelName   string          `json:"level_name"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
}

// DonationReportResponse is the donations report payload.
type DonationReportResponse struct {
	Total     decimal.Decimal `json:"total"`
	Count     int             `json:"count"`
	Donations []DonationRow   `json:"donations"`
}
