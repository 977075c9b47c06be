package dto

import (
	"time"

	ierr "github.com/memberbase/memberbase/internal/errors"
)

// RenewalRecalculationRequest is sent by the billing path after it has
// computed the end date for a completed billing cycle; the response carries
// the end date to store, adjusted when the member is renewing inside a
// grace period.
type RenewalRecalculationRequest struct {
	MemberID    string    `json:"member_id" binding:"required"`
	LevelID     string    `json:"level_id" binding:"required"`
	ProposedEnd time.Time `json:"proposed_end" binding:"required"`
	StartDate   time.Time `json:"start_date"`
}

// Validate validates the recalculation request
func (r *RenewalRecalculationRequest) Validate() error {
	if r.MemberID == "" || r.LevelID == "" {
		return ierr.NewError("member_id and level_id are required").
			WithHint("Both member_id and level_id must be provided").
			Mark(ierr.ErrValidation)
	}
	if r.ProposedEnd.IsZero() {
		return ierr.NewError("proposed_end is required").
			WithHint("The proposed end date must be provided").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RenewalRecalculationResponse returns the end date the billing path should
// store. Adjusted is true when the grace anchor changed the proposed date.
type RenewalRecalculationResponse struct {
	MemberID string    `json:"member_id"`
	EndDate  time.Time `json:"end_date"`
	Adjusted bool      `json:"adjusted"`
}
