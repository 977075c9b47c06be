package level

import "context"

// Repository defines the interface for membership level catalog lookups
type Repository interface {
	// Create adds a new level to the catalog
	Create(ctx context.Context, level *MembershipLevel) error

	// GetLevel retrieves a level by ID
	GetLevel(ctx context.Context, id string) (*MembershipLevel, error)

	// List returns all published levels
	List(ctx context.Context) ([]*MembershipLevel, error)
}
