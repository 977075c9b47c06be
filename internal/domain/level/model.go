package level

import (
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// MembershipLevel is a catalog entry describing a purchasable membership
// tier and its billing period. A PeriodCount of 0 means the level never
// expires.
type MembershipLevel struct {
	ID          string                  `db:"id" json:"id"`
	Name        string                  `db:"name" json:"name"`
	PeriodUnit  types.BillingPeriodUnit `db:"period_unit" json:"period_unit"`
	PeriodCount int                     `db:"period_count" json:"period_count"`
	types.BaseModel
}

// NeverExpires reports whether memberships at this level have no end date.
func (l *MembershipLevel) NeverExpires() bool {
	return l.PeriodCount == 0
}

// Validate validates the membership level
func (l *MembershipLevel) Validate() error {
	if l.Name == "" {
		return ierr.NewError("name is required").Mark(ierr.ErrValidation)
	}
	if l.PeriodCount < 0 {
		return ierr.NewErrorf("period count cannot be negative: %d", l.PeriodCount).
			WithHint("Period count must be 0 or greater; 0 means the level never expires").
			Mark(ierr.ErrValidation)
	}
	if l.PeriodCount > 0 {
		if err := l.PeriodUnit.Validate(); err != nil {
			return err
		}
	}
	return nil
}
