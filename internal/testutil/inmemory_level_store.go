package testutil

import (
	"context"

	"github.com/memberbase/memberbase/internal/domain/level"
	ierr "github.com/memberbase/memberbase/internal/errors"
)

// InMemoryLevelStore implements level.Repository
type InMemoryLevelStore struct {
	*InMemoryStore[*level.MembershipLevel]
}

// NewInMemoryLevelStore creates a new in-memory level catalog store
func NewInMemoryLevelStore() *InMemoryLevelStore {
	return &InMemoryLevelStore{
		InMemoryStore: NewInMemoryStore[*level.MembershipLevel](),
	}
}

func copyLevel(l *level.MembershipLevel) *level.MembershipLevel {
	if l == nil {
		return nil
	}
	copied := *l
	return &copied
}

func (s *InMemoryLevelStore) Create(ctx context.Context, l *level.MembershipLevel) error {
	if l == nil {
		return ierr.NewError("level cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := l.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, l.ID, copyLevel(l))
}

func (s *InMemoryLevelStore) GetLevel(ctx context.Context, id string) (*level.MembershipLevel, error) {
	l, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("membership level not found").
			WithHint("Unknown membership level").
			WithReportableDetails(map[string]interface{}{
				"level_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyLevel(l), nil
}

func (s *InMemoryLevelStore) List(ctx context.Context) ([]*level.MembershipLevel, error) {
	items := s.InMemoryStore.List(ctx, nil)
	out := make([]*level.MembershipLevel, 0, len(items))
	for _, l := range items {
		out = append(out, copyLevel(l))
	}
	return out, nil
}
