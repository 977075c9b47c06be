package membership

import (
	"time"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// Membership is a member's current entitlement: the level they hold, its
// validity end date, and its status. A nil EndDate means the membership
// never expires. The member association is owned by the account system;
// this record is only ever updated through ChangeLevel.
type Membership struct {
	MemberID         string                 `db:"member_id" json:"member_id"`
	MemberEmail      string                 `db:"member_email" json:"member_email"`
	LevelID          string                 `db:"level_id" json:"level_id"`
	EndDate          *time.Time             `db:"end_date" json:"end_date,omitempty"`
	MembershipStatus types.MembershipStatus `db:"membership_status" json:"membership_status"`
	types.BaseModel
}

// IsActive reports whether the membership is currently active.
func (m *Membership) IsActive() bool {
	return m.MembershipStatus == types.MembershipStatusActive && m.LevelID != ""
}

// Validate validates the membership record
func (m *Membership) Validate() error {
	if m.MemberID == "" {
		return ierr.NewError("member_id is required").Mark(ierr.ErrValidation)
	}
	return nil
}
