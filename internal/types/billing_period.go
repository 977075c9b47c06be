package types

import (
	"time"

	ierr "github.com/memberbase/memberbase/internal/errors"
)

// BillingPeriodUnit is the unit of a membership level's billing period.
type BillingPeriodUnit string

const (
	BILLING_PERIOD_HOUR  BillingPeriodUnit = "hour"
	BILLING_PERIOD_DAY   BillingPeriodUnit = "day"
	BILLING_PERIOD_WEEK  BillingPeriodUnit = "week"
	BILLING_PERIOD_MONTH BillingPeriodUnit = "month"
	BILLING_PERIOD_YEAR  BillingPeriodUnit = "year"
)

// Validate checks that the unit is one of the supported billing period units.
func (u BillingPeriodUnit) Validate() error {
	switch u {
	case BILLING_PERIOD_HOUR, BILLING_PERIOD_DAY, BILLING_PERIOD_WEEK,
		BILLING_PERIOD_MONTH, BILLING_PERIOD_YEAR:
		return nil
	default:
		return ierr.NewErrorf("invalid billing period unit: %s", u).
			WithHint("Billing period unit must be one of hour, day, week, month, year").
			WithReportableDetails(map[string]interface{}{
				"unit": u,
			}).
			Mark(ierr.ErrValidation)
	}
}

// AddBillingPeriods returns start advanced by count billing periods,
// using calendar-aware addition for day/week/month/year units. Month and
// year additions follow time.AddDate normalization (Jan 31 + 1 month
// lands in early March).
func AddBillingPeriods(start time.Time, unit BillingPeriodUnit, count int) (time.Time, error) {
	if count < 0 {
		return time.Time{}, ierr.NewErrorf("billing period count cannot be negative: %d", count).
			WithHint("Billing period count must be 0 or greater").
			Mark(ierr.ErrValidation)
	}

	switch unit {
	case BILLING_PERIOD_HOUR:
		return start.Add(time.Duration(count) * time.Hour), nil
	case BILLING_PERIOD_DAY:
		return start.AddDate(0, 0, count), nil
	case BILLING_PERIOD_WEEK:
		return start.AddDate(0, 0, 7*count), nil
	case BILLING_PERIOD_MONTH:
		return start.AddDate(0, count, 0), nil
	case BILLING_PERIOD_YEAR:
		return start.AddDate(count, 0, 0), nil
	default:
		return time.Time{}, ierr.NewErrorf("invalid billing period unit: %s", unit).
			WithHint("Billing period unit must be one of hour, day, week, month, year").
			Mark(ierr.ErrValidation)
	}
}
