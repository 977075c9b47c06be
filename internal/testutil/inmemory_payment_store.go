package testutil

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/memberbase/memberbase/internal/domain/payment"
	ierr "github.com/memberbase/memberbase/internal/errors"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Order]
}

// NewInMemoryPaymentStore creates a new in-memory payment store
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Order](),
	}
}

func copyOrder(o *payment.Order) *payment.Order {
	if o == nil {
		return nil
	}
	copied := *o
	return &copied
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, order *payment.Order) error {
	if order == nil {
		return ierr.NewError("order cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := order.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, order.ID, copyOrder(order))
}

func (s *InMemoryPaymentStore) ListDonations(ctx context.Context, filter payment.DonationFilter) ([]*payment.Order, error) {
	items := s.InMemoryStore.List(ctx, func(o *payment.Order) bool {
		return filter.Matches(o)
	})

	out := make([]*payment.Order, 0, len(items))
	for _, o := range items {
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *InMemoryPaymentStore) TotalDonations(ctx context.Context, filter payment.DonationFilter) (decimal.Decimal, error) {
	orders, err := s.ListDonations(ctx, filter)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.DonationAmount)
	}
	return total, nil
}
