package dto

import (
	"time"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// GraceStatusResponse describes a member's grace bookkeeping for display.
// All fields are derived; the endpoint never mutates state.
type GraceStatusResponse struct {
	MemberID        string           `json:"member_id"`
	InGrace         bool             `json:"in_grace"`
	State           types.GraceState `json:"state,omitempty"`
	LevelID         string           `json:"level_id,omitempty"`
	LevelName       string           `json:"level_name,omitempty"`
	OriginalEndDate *time.Time       `json:"original_end_date,omitempty"`
	GraceEndDate    *time.Time       `json:"grace_end_date,omitempty"`
	DaysLeft        int              `json:"days_left"`
}

// GraceMemberResponse is one row of the admin members listing.
type GraceMemberResponse struct {
	MemberID         string                 `json:"member_id"`
	MemberEmail      string                 `json:"member_email"`
	LevelID          string                 `json:"level_id"`
	LevelName        string                 `json:"level_name,omitempty"`
	MembershipStatus types.MembershipStatus `json:"membership_status"`
	EndDate          *time.Time             `json:"end_date,omitempty"`
	Grace            *GraceStatusResponse   `json:"grace,omitempty"`
}

// TriggerGraceRequest asks the testing console to fire the end-of-term
// transition for a member.
type TriggerGraceRequest struct {
	MemberID string `json:"member_id" binding:"required"`
	LevelID  string `json:"level_id" binding:"required"`
}

// Validate validates the trigger request
func (r *TriggerGraceRequest) Validate() error {
	if r.MemberID == "" || r.LevelID == "" {
		return ierr.NewError("member_id and level_id are required").
			WithHint("Both member_id and level_id must be provided").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SimulateEmailRequest asks the testing console to send one of the
// lifecycle emails to a member regardless of schedule.
type SimulateEmailRequest struct {
	MemberID   string `json:"member_id" binding:"required"`
	TemplateID string `json:"template_id" binding:"required"`
}

// SweepResponse reports the outcome of one expiration sweep.
type SweepResponse struct {
	FinalizedMemberIDs []string  `json:"finalized_member_ids"`
	RanAt              time.Time `json:"ran_at"`
}

// WarningRunResponse reports the outcome of one warning email run.
type WarningRunResponse struct {
	Sent  int       `json:"sent"`
	RanAt time.Time `json:"ran_at"`
}
