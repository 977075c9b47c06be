package testutil

import (
	"context"

	"github.com/memberbase/memberbase/internal/domain/grace"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// InMemoryGraceStore implements grace.Repository
type InMemoryGraceStore struct {
	*InMemoryStore[*grace.Entry]

	// FailUpsert forces Upsert to fail, for write-failure tests.
	FailUpsert bool
}

// NewInMemoryGraceStore creates a new in-memory grace ledger store
func NewInMemoryGraceStore() *InMemoryGraceStore {
	return &InMemoryGraceStore{
		InMemoryStore: NewInMemoryStore[*grace.Entry](),
	}
}

func copyGraceEntry(e *grace.Entry) *grace.Entry {
	if e == nil {
		return nil
	}
	copied := *e
	if e.OriginalEndDate != nil {
		t := *e.OriginalEndDate
		copied.OriginalEndDate = &t
	}
	return &copied
}

func (s *InMemoryGraceStore) Get(ctx context.Context, memberID string) (*grace.Entry, error) {
	entry, err := s.InMemoryStore.Get(ctx, memberID)
	if err != nil {
		return nil, ierr.NewError("grace entry not found").
			WithHint("Member is not in a grace period").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyGraceEntry(entry), nil
}

func (s *InMemoryGraceStore) Upsert(ctx context.Context, entry *grace.Entry) error {
	if entry == nil {
		return ierr.NewError("grace entry cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if s.FailUpsert {
		return ierr.NewError("grace store rejected the write").
			Mark(ierr.ErrDatabase)
	}
	s.InMemoryStore.Set(ctx, entry.MemberID, copyGraceEntry(entry))
	return nil
}

func (s *InMemoryGraceStore) MarkExiting(ctx context.Context, memberID string) error {
	entry, err := s.InMemoryStore.Get(ctx, memberID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Grace entry not found").
			Mark(ierr.ErrNotFound)
	}
	updated := copyGraceEntry(entry)
	updated.State = types.GraceStateExiting
	return s.InMemoryStore.Update(ctx, memberID, updated)
}

func (s *InMemoryGraceStore) Delete(ctx context.Context, memberID string) error {
	if err := s.InMemoryStore.Delete(ctx, memberID); err != nil {
		return ierr.WithError(err).
			WithHint("Grace entry not found").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryGraceStore) List(ctx context.Context) ([]*grace.Entry, error) {
	entries := s.InMemoryStore.List(ctx, nil)
	out := make([]*grace.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, copyGraceEntry(e))
	}
	return out, nil
}
