package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"

	"github.com/memberbase/memberbase/internal/api/dto"
	"github.com/memberbase/memberbase/internal/domain/grace"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

const pairedWriteMaxRetries = 3

// GraceLifecycleService owns the grace period state machine: entering grace
// when a membership reaches its end date, sweeping lapsed grace windows,
// and the read-only status accessors used by the admin console.
type GraceLifecycleService interface {
	// EnterGrace handles the "membership reached its end date" event for a
	// member at the given level. Idempotent for repeated events at the same
	// level.
	EnterGrace(ctx context.Context, memberID, levelID string) error

	// RunSweep scans the grace ledger and finalizes every lapsed window.
	// Returns the member IDs finalized in this run. The caller guarantees
	// single-flight invocation.
	RunSweep(ctx context.Context, now time.Time) ([]string, error)

	// ForceExpire lapses a member's grace window immediately (testing tool).
	ForceExpire(ctx context.Context, memberID string) error

	// ResetGrace discards a member's grace bookkeeping (testing tool).
	ResetGrace(ctx context.Context, memberID string) error

	// GetGraceStatus returns the member's grace status for display.
	GetGraceStatus(ctx context.Context, memberID string) (*dto.GraceStatusResponse, error)

	// ListMembers returns all memberships with their grace status attached.
	ListMembers(ctx context.Context) ([]*dto.GraceMemberResponse, error)
}

type graceLifecycleService struct {
	ServiceParams
}

// NewGraceLifecycleService creates a new grace lifecycle service
func NewGraceLifecycleService(params ServiceParams) GraceLifecycleService {
	return &graceLifecycleService{ServiceParams: params}
}

func (s *graceLifecycleService) EnterGrace(ctx context.Context, memberID, levelID string) error {
	if memberID == "" || levelID == "" {
		return ierr.NewError("member_id and level_id are required").
			WithHint("Both member_id and level_id must be provided").
			Mark(ierr.ErrValidation)
	}

	existing, err := s.GraceRepo.Get(ctx, memberID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}

	// Re-entry guard: a repeated end-of-term event for the same level must
	// not re-stamp the original end date.
	if existing != nil && existing.LevelID == levelID {
		s.Logger.Debugw("member already in grace for level, skipping",
			"member_id", memberID,
			"level_id", levelID,
			"grace_end_date", existing.GraceEndDate,
		)
		return nil
	}

	// Read the pre-grace end date before any mutation; it is the anchor for
	// renewal recalculation. Nil means the membership never expired.
	originalEnd, err := s.MembershipRepo.GetCurrentEndDate(ctx, memberID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("no membership found for expiring member, skipping grace entry",
				"member_id", memberID,
				"level_id", levelID,
			)
		}
		return err
	}

	now := s.now()
	graceEnd := s.graceEndDate(originalEnd, now)

	entry := &grace.Entry{
		MemberID:        memberID,
		LevelID:         levelID,
		OriginalEndDate: originalEnd,
		GraceEndDate:    graceEnd,
		State:           types.GraceStateActive,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	// Store write first, then the ledger write; the pair must be
	// all-or-nothing per member.
	if err := s.MembershipRepo.ChangeLevel(ctx, memberID, levelID, lo.ToPtr(graceEnd), types.MembershipStatusActive); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to extend membership for grace period").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
				"level_id":  levelID,
			}).
			Mark(ierr.ErrDatabase)
	}

	if err := s.retryWrite(ctx, func() error {
		return s.GraceRepo.Upsert(ctx, entry)
	}); err != nil {
		// Compensate: the extension must not survive without its ledger row.
		if rbErr := s.MembershipRepo.ChangeLevel(ctx, memberID, levelID, originalEnd, types.MembershipStatusActive); rbErr != nil {
			s.Logger.Errorw("failed to roll back grace extension after ledger write failure",
				"error", rbErr,
				"member_id", memberID,
			)
		}
		return ierr.WithError(err).
			WithHint("Failed to record grace ledger entry").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
				"level_id":  levelID,
			}).
			Mark(ierr.ErrDatabase)
	}

	s.Logger.Infow("member entered grace period",
		"member_id", memberID,
		"level_id", levelID,
		"original_end_date", originalEnd,
		"grace_end_date", graceEnd,
	)
	return nil
}

// graceEndDate anchors the grace window to the pre-grace end date so that
// graceEnd == originalEnd + window holds whenever an original end date
// exists. Non-expiring memberships anchor to the event time instead.
func (s *graceLifecycleService) graceEndDate(originalEnd *time.Time, now time.Time) time.Time {
	if originalEnd != nil {
		return originalEnd.AddDate(0, 0, s.GraceWindow())
	}
	return now.AddDate(0, 0, s.GraceWindow())
}

func (s *graceLifecycleService) RunSweep(ctx context.Context, now time.Time) ([]string, error) {
	entries, err := s.GraceRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	finalized := make([]string, 0)
	for _, entry := range entries {
		// Exiting rows are waiting on the notifier; they are not swept again.
		if entry.State != types.GraceStateActive {
			continue
		}

		currentLevel, err := s.MembershipRepo.GetCurrentLevel(ctx, entry.MemberID)
		if err != nil {
			// Per-member failures never abort the sweep.
			s.Logger.Warnw("failed to load membership during sweep, skipping member",
				"error", err,
				"member_id", entry.MemberID,
			)
			continue
		}

		// The member changed levels out-of-band; leave the entry in place so
		// the divergence stays visible to operators.
		if currentLevel != entry.LevelID {
			s.Logger.Warnw("grace entry level differs from current membership, leaving entry for operator review",
				"member_id", entry.MemberID,
				"grace_level_id", entry.LevelID,
				"current_level_id", currentLevel,
			)
			continue
		}

		if !entry.IsLapsed(now) {
			continue
		}

		if err := s.finalize(ctx, entry); err != nil {
			s.Logger.Errorw("failed to finalize lapsed grace period",
				"error", err,
				"member_id", entry.MemberID,
			)
			continue
		}
		finalized = append(finalized, entry.MemberID)
	}

	s.Logger.Infow("grace sweep completed",
		"entries_scanned", len(entries),
		"finalized", len(finalized),
	)
	return finalized, nil
}

// finalize ends a lapsed grace period: the entry flips to exiting before
// the cancellation so the notification gate lets the real "membership
// expired" notice through, then the membership is cancelled.
func (s *graceLifecycleService) finalize(ctx context.Context, entry *grace.Entry) error {
	if err := s.GraceRepo.MarkExiting(ctx, entry.MemberID); err != nil {
		return err
	}

	if err := s.retryWrite(ctx, func() error {
		return s.MembershipRepo.ChangeLevel(ctx, entry.MemberID, "", nil, types.MembershipStatusCancelled)
	}); err != nil {
		// Undo the exiting mark so the next sweep retries the pair cleanly.
		entry.State = types.GraceStateActive
		if rbErr := s.GraceRepo.Upsert(ctx, entry); rbErr != nil {
			s.Logger.Errorw("failed to restore grace entry after cancellation failure",
				"error", rbErr,
				"member_id", entry.MemberID,
			)
		}
		return ierr.WithError(err).
			WithHint("Failed to cancel membership at end of grace period").
			WithReportableDetails(map[string]interface{}{
				"member_id": entry.MemberID,
			}).
			Mark(ierr.ErrDatabase)
	}

	s.Logger.Infow("grace period finalized, membership cancelled",
		"member_id", entry.MemberID,
		"level_id", entry.LevelID,
		"grace_end_date", entry.GraceEndDate,
	)
	return nil
}

func (s *graceLifecycleService) ForceExpire(ctx context.Context, memberID string) error {
	entry, err := s.GraceRepo.Get(ctx, memberID)
	if err != nil {
		return err
	}
	if entry.State != types.GraceStateActive {
		return ierr.NewError("member is not in an active grace period").
			WithHint("Only active grace periods can be force-expired").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
				"state":     entry.State,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return s.finalize(ctx, entry)
}

func (s *graceLifecycleService) ResetGrace(ctx context.Context, memberID string) error {
	if err := s.GraceRepo.Delete(ctx, memberID); err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	s.Logger.Infow("grace bookkeeping reset", "member_id", memberID)
	return nil
}

func (s *graceLifecycleService) GetGraceStatus(ctx context.Context, memberID string) (*dto.GraceStatusResponse, error) {
	entry, err := s.GraceRepo.Get(ctx, memberID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return &dto.GraceStatusResponse{MemberID: memberID}, nil
		}
		return nil, err
	}
	return s.toStatusResponse(ctx, entry), nil
}

func (s *graceLifecycleService) ListMembers(ctx context.Context) ([]*dto.GraceMemberResponse, error) {
	memberships, err := s.MembershipRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.GraceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	entryByMember := lo.KeyBy(entries, func(e *grace.Entry) string { return e.MemberID })

	out := make([]*dto.GraceMemberResponse, 0, len(memberships))
	for _, m := range memberships {
		row := &dto.GraceMemberResponse{
			MemberID:         m.MemberID,
			MemberEmail:      m.MemberEmail,
			LevelID:          m.LevelID,
			MembershipStatus: m.MembershipStatus,
			EndDate:          m.EndDate,
		}
		if lvl, err := s.getLevel(ctx, m.LevelID); err == nil {
			row.LevelName = lvl.Name
		}
		if entry, ok := entryByMember[m.MemberID]; ok {
			row.Grace = s.toStatusResponse(ctx, entry)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *graceLifecycleService) toStatusResponse(ctx context.Context, entry *grace.Entry) *dto.GraceStatusResponse {
	resp := &dto.GraceStatusResponse{
		MemberID:        entry.MemberID,
		InGrace:         entry.State == types.GraceStateActive,
		State:           entry.State,
		LevelID:         entry.LevelID,
		OriginalEndDate: entry.OriginalEndDate,
		GraceEndDate:    lo.ToPtr(entry.GraceEndDate),
		DaysLeft:        entry.DaysLeft(s.now()),
	}
	if lvl, err := s.getLevel(ctx, entry.LevelID); err == nil {
		resp.LevelName = lvl.Name
	}
	return resp
}

// retryWrite retries a store write with bounded exponential backoff.
func (s *graceLifecycleService) retryWrite(ctx context.Context, op func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), pairedWriteMaxRetries),
		ctx,
	)
	return backoff.Retry(op, b)
}
