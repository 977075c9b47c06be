package types

import (
	"math"
	"time"
)

// MembershipStatus is the status of a member's entitlement.
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusCancelled MembershipStatus = "cancelled"
)

// GraceState is the tagged state of a member's grace period bookkeeping.
// A member with no grace entry at all is not in grace.
type GraceState string

const (
	// GraceStateActive means the member is inside the grace extension.
	GraceStateActive GraceState = "active"

	// GraceStateExiting is the transient state between the sweep deciding the
	// grace window has lapsed and the notifier consuming the one-shot
	// "membership expired" notification.
	GraceStateExiting GraceState = "exiting"
)

// DaysUntil returns the whole days remaining until end, rounded up and
// floored at zero.
func DaysUntil(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
