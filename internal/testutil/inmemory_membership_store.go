package testutil

import (
	"context"
	"time"

	"github.com/memberbase/memberbase/internal/domain/membership"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// InMemoryMembershipStore implements membership.Repository
type InMemoryMembershipStore struct {
	*InMemoryStore[*membership.Membership]

	// FailChangeLevel forces ChangeLevel to fail, for write-failure tests.
	FailChangeLevel bool
}

// NewInMemoryMembershipStore creates a new in-memory membership store
func NewInMemoryMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{
		InMemoryStore: NewInMemoryStore[*membership.Membership](),
	}
}

func copyMembership(m *membership.Membership) *membership.Membership {
	if m == nil {
		return nil
	}
	copied := *m
	if m.EndDate != nil {
		t := *m.EndDate
		copied.EndDate = &t
	}
	return &copied
}

func (s *InMemoryMembershipStore) Create(ctx context.Context, m *membership.Membership) error {
	if m == nil {
		return ierr.NewError("membership cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, m.MemberID, copyMembership(m))
}

func (s *InMemoryMembershipStore) GetByMemberID(ctx context.Context, memberID string) (*membership.Membership, error) {
	m, err := s.InMemoryStore.Get(ctx, memberID)
	if err != nil {
		return nil, ierr.NewError("membership not found").
			WithHint("Member has no membership record").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyMembership(m), nil
}

func (s *InMemoryMembershipStore) GetCurrentEndDate(ctx context.Context, memberID string) (*time.Time, error) {
	m, err := s.GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return m.EndDate, nil
}

func (s *InMemoryMembershipStore) GetCurrentLevel(ctx context.Context, memberID string) (string, error) {
	m, err := s.GetByMemberID(ctx, memberID)
	if err != nil {
		return "", err
	}
	return m.LevelID, nil
}

func (s *InMemoryMembershipStore) ChangeLevel(ctx context.Context, memberID, levelID string, endDate *time.Time, status types.MembershipStatus) error {
	if s.FailChangeLevel {
		return ierr.NewError("membership store rejected the write").
			Mark(ierr.ErrDatabase)
	}

	m, err := s.GetByMemberID(ctx, memberID)
	if err != nil {
		return err
	}

	m.LevelID = levelID
	m.EndDate = endDate
	m.MembershipStatus = status
	m.UpdatedAt = time.Now().UTC()
	m.UpdatedBy = types.GetUserID(ctx)
	return s.InMemoryStore.Update(ctx, memberID, m)
}

func (s *InMemoryMembershipStore) ListActive(ctx context.Context) ([]*membership.Membership, error) {
	items := s.InMemoryStore.List(ctx, func(m *membership.Membership) bool {
		return m.IsActive()
	})
	out := make([]*membership.Membership, 0, len(items))
	for _, m := range items {
		out = append(out, copyMembership(m))
	}
	return out, nil
}
