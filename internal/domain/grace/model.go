package grace

import (
	"time"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// Entry is the per-member grace ledger row. At most one entry exists per
// member at any time. OriginalEndDate is the end date the membership held
// before the grace extension and is the anchor for renewal recalculation;
// it is nil when a non-expiring membership entered grace.
//
// State tags the member's position in the grace lifecycle:
// active while inside the window, exiting for the single transient step
// between the sweep finalizing a lapsed window and the notifier consuming
// the "membership expired" notification.
type Entry struct {
	MemberID        string           `db:"member_id" json:"member_id"`
	LevelID         string           `db:"level_id" json:"level_id"`
	OriginalEndDate *time.Time       `db:"original_end_date" json:"original_end_date,omitempty"`
	GraceEndDate    time.Time        `db:"grace_end_date" json:"grace_end_date"`
	State           types.GraceState `db:"state" json:"state"`
	types.BaseModel
}

// IsLapsed reports whether the grace window has ended as of now.
func (e *Entry) IsLapsed(now time.Time) bool {
	return !now.Before(e.GraceEndDate)
}

// DaysLeft returns the whole days remaining in the grace window, rounded
// up, for display only.
func (e *Entry) DaysLeft(now time.Time) int {
	return types.DaysUntil(e.GraceEndDate, now)
}

// Validate validates the grace entry
func (e *Entry) Validate() error {
	if e.MemberID == "" {
		return ierr.NewError("member_id is required").Mark(ierr.ErrValidation)
	}
	if e.LevelID == "" {
		return ierr.NewError("level_id is required").Mark(ierr.ErrValidation)
	}
	if e.GraceEndDate.IsZero() {
		return ierr.NewError("grace_end_date is required").Mark(ierr.ErrValidation)
	}
	if e.State != types.GraceStateActive && e.State != types.GraceStateExiting {
		return ierr.NewErrorf("invalid grace state: %s", e.State).Mark(ierr.ErrValidation)
	}
	return nil
}
