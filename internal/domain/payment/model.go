package payment

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// Order is a committed membership payment record. DonationAmount is the
// optional donation portion captured with the order; the donations report
// only considers orders where it is positive.
type Order struct {
	ID             string          `db:"id" json:"id"`
	MemberID       string          `db:"member_id" json:"member_id"`
	MemberEmail    string          `db:"member_email" json:"member_email"`
	MemberName     string          `db:"member_name" json:"member_name"`
	LevelID        string          `db:"level_id" json:"level_id"`
	LevelName      string          `db:"level_name" json:"level_name"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	DonationAmount decimal.Decimal `db:"donation_amount" json:"donation_amount"`
	Timestamp      time.Time       `db:"timestamp" json:"timestamp"`
	types.BaseModel
}

// HasDonation reports whether the order carries a donation.
func (o *Order) HasDonation() bool {
	return o.DonationAmount.IsPositive()
}

// Validate validates the order
func (o *Order) Validate() error {
	if o.MemberID == "" {
		return ierr.NewError("member_id is required").Mark(ierr.ErrValidation)
	}
	if o.Amount.IsNegative() || o.DonationAmount.IsNegative() {
		return ierr.NewError("amounts cannot be negative").Mark(ierr.ErrValidation)
	}
	return nil
}

// YearType selects how a year filter is interpreted by the donations report.
type YearType string

const (
	// YearTypeFiscal runs July 1 of the filter year through June 30 of the next.
	YearTypeFiscal YearType = "fiscal"

	// YearTypeCalendar runs January 1 through December 31 of the filter year.
	YearTypeCalendar YearType = "calendar"
)

// DonationFilter narrows the donations report. Zero values mean "no filter".
type DonationFilter struct {
	Month       int      `json:"month,omitempty"`
	Year        int      `json:"year,omitempty"`
	YearType    YearType `json:"year_type,omitempty"`
	MemberEmail string   `json:"member_email,omitempty"`
}

// Window returns the [start, end) time window implied by the year filter,
// or ok=false when no year filter is set.
func (f DonationFilter) Window() (start, end time.Time, ok bool) {
	if f.Year == 0 {
		return time.Time{}, time.Time{}, false
	}
	switch f.YearType {
	case YearTypeCalendar:
		start = time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
	default:
		// Fiscal year is the default, matching the finance team's reporting.
		start = time.Date(f.Year, time.July, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
	}
	return start, end, true
}

// Matches reports whether an order passes the filter. Orders without a
// donation never match.
func (f DonationFilter) Matches(o *Order) bool {
	if !o.HasDonation() {
		return false
	}
	if f.MemberEmail != "" && o.MemberEmail != f.MemberEmail {
		return false
	}
	if start, end, ok := f.Window(); ok {
		if o.Timestamp.Before(start) || !o.Timestamp.Before(end) {
			return false
		}
	}
	if f.Month != 0 && int(o.Timestamp.Month()) != f.Month {
		return false
	}
	return true
}

// Validate validates the filter
func (f DonationFilter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return ierr.NewErrorf("invalid month: %d", f.Month).
			WithHint("Month must be between 1 and 12").
			Mark(ierr.ErrValidation)
	}
	if f.YearType != "" && f.YearType != YearTypeFiscal && f.YearType != YearTypeCalendar {
		return ierr.NewErrorf("invalid year type: %s", f.YearType).
			WithHint("Year type must be fiscal or calendar").
			Mark(ierr.ErrValidation)
	}
	return nil
}
