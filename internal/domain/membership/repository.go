package membership

import (
	"context"
	"time"

	"github.com/memberbase/memberbase/internal/types"
)

// Repository is the narrow contract the grace engine holds against the
// entitlement store. ChangeLevel with an empty levelID and a cancelled
// status removes the member's entitlement.
type Repository interface {
	// Create registers a membership record for a member
	Create(ctx context.Context, m *Membership) error

	// GetByMemberID retrieves a member's current membership
	GetByMemberID(ctx context.Context, memberID string) (*Membership, error)

	// GetCurrentEndDate returns the member's current end date; nil means the
	// membership never expires
	GetCurrentEndDate(ctx context.Context, memberID string) (*time.Time, error)

	// GetCurrentLevel returns the member's current level ID; empty when the
	// member holds no level
	GetCurrentLevel(ctx context.Context, memberID string) (string, error)

	// ChangeLevel updates the member's level, end date and status in one write
	ChangeLevel(ctx context.Context, memberID, levelID string, endDate *time.Time, status types.MembershipStatus) error

	// ListActive returns all active memberships
	ListActive(ctx context.Context) ([]*Membership, error)
}
