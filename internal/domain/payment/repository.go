package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines read access to committed payment records. The grace
// engine never writes orders; Create exists for ingestion and tests.
type Repository interface {
	// Create stores a committed order
	Create(ctx context.Context, order *Order) error

	// ListDonations returns donation-carrying orders matching the filter,
	// newest first
	ListDonations(ctx context.Context, filter DonationFilter) ([]*Order, error)

	// TotalDonations returns the summed donation amount for the filter
	TotalDonations(ctx context.Context, filter DonationFilter) (decimal.Decimal, error)
}
