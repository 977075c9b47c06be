package grace

import "context"

// Repository defines the interface for grace ledger persistence. Get returns
// an ErrNotFound-marked error when the member has no entry; callers treat
// that as the legitimate "not in grace" state.
type Repository interface {
	// Get retrieves the member's grace entry
	Get(ctx context.Context, memberID string) (*Entry, error)

	// Upsert creates or replaces the member's grace entry
	Upsert(ctx context.Context, entry *Entry) error

	// MarkExiting flips the member's entry into the exiting state
	MarkExiting(ctx context.Context, memberID string) error

	// Delete removes the member's grace entry
	Delete(ctx context.Context, memberID string) error

	// List returns all grace entries
	List(ctx context.Context) ([]*Entry, error)
}
