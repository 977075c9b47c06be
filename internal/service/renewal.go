package service

import (
	"context"
	"time"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// RenewalService adjusts the end date proposed by the billing path when a
// member renews during a grace period, anchoring the new end date to the
// pre-grace original end date so the member neither loses nor gains days
// relative to never having lapsed.
type RenewalService interface {
	// RecalculateEndDate is called by the billing path after it has computed
	// proposedEnd for a completed billing cycle. It returns the end date to
	// use. A matching renewal always clears the member's grace bookkeeping,
	// whichever branch produced the result.
	RecalculateEndDate(ctx context.Context, proposedEnd time.Time, memberID, levelID string, startDate time.Time) (time.Time, error)
}

type renewalService struct {
	ServiceParams
}

// NewRenewalService creates a new renewal service
func NewRenewalService(params ServiceParams) RenewalService {
	return &renewalService{ServiceParams: params}
}

func (s *renewalService) RecalculateEndDate(ctx context.Context, proposedEnd time.Time, memberID, levelID string, startDate time.Time) (time.Time, error) {
	entry, err := s.GraceRepo.Get(ctx, memberID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Not a grace renewal.
			return proposedEnd, nil
		}
		return proposedEnd, err
	}

	if entry.LevelID != levelID {
		return proposedEnd, nil
	}

	result := proposedEnd

	// Anchored recalculation needs the pre-grace end date; a membership that
	// entered grace without one keeps the proposed date.
	if entry.OriginalEndDate != nil {
		if candidate, ok := s.anchoredEndDate(ctx, *entry.OriginalEndDate, levelID); ok {
			result = candidate
		}
	}

	// A successful renewal always clears grace bookkeeping, whether or not
	// the anchored calculation was used.
	if err := s.GraceRepo.Delete(ctx, memberID); err != nil && !ierr.IsNotFound(err) {
		s.Logger.Errorw("failed to clear grace bookkeeping after renewal",
			"error", err,
			"member_id", memberID,
		)
	}

	s.Logger.Infow("renewal end date recalculated during grace period",
		"member_id", memberID,
		"level_id", levelID,
		"proposed_end", proposedEnd,
		"result_end", result,
		"anchored", !result.Equal(proposedEnd),
	)
	return result, nil
}

// anchoredEndDate computes originalEnd advanced by one billing period of the
// level. It fails closed: any lookup or calculation problem, a non-expiring
// level, or a candidate that is not in the future all yield ok=false.
func (s *renewalService) anchoredEndDate(ctx context.Context, originalEnd time.Time, levelID string) (time.Time, bool) {
	lvl, err := s.getLevel(ctx, levelID)
	if err != nil {
		s.Logger.Warnw("failed to load level for renewal recalculation, keeping proposed end date",
			"error", err,
			"level_id", levelID,
		)
		return time.Time{}, false
	}

	if lvl.NeverExpires() {
		return time.Time{}, false
	}

	candidate, err := types.AddBillingPeriods(originalEnd, lvl.PeriodUnit, lvl.PeriodCount)
	if err != nil {
		s.Logger.Warnw("invalid billing period on level, keeping proposed end date",
			"error", err,
			"level_id", levelID,
			"period_unit", lvl.PeriodUnit,
			"period_count", lvl.PeriodCount,
		)
		return time.Time{}, false
	}

	// Guard against producing an end date already in the past when the
	// member renews very late in the grace window.
	if !candidate.After(s.now()) {
		return time.Time{}, false
	}
	return candidate, true
}
