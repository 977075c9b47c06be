package postgres

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/memberbase/memberbase/internal/domain/payment"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/postgres"
	"github.com/memberbase/memberbase/internal/types"
)

type PaymentRepository struct {
	client *postgres.Client
	logger *logger.Logger
}

func NewPaymentRepository(client *postgres.Client, logger *logger.Logger) payment.Repository {
	return &PaymentRepository{client: client, logger: logger}
}

const orderColumns = `
	id, member_id, member_email, member_name, level_id, level_name,
	amount, donation_amount, timestamp,
	status, created_at, updated_at, created_by, updated_by
`

func (r *PaymentRepository) Create(ctx context.Context, order *payment.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.client.Conn(ctx).ExecContext(ctx, query,
		order.ID,
		order.MemberID,
		order.MemberEmail,
		order.MemberName,
		order.LevelID,
		order.LevelName,
		order.Amount.String(),
		order.DonationAmount.String(),
		order.Timestamp,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
		order.CreatedBy,
		order.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Order already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create order").
			WithReportableDetails(map[string]interface{}{
				"order_id": order.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// donationWhere builds the filter clause shared by the listing and the total.
func donationWhere(filter payment.DonationFilter) (string, []interface{}) {
	where := ` WHERE status = $1 AND donation_amount > 0`
	args := []interface{}{types.StatusPublished}

	if filter.MemberEmail != "" {
		args = append(args, filter.MemberEmail)
		where += ` AND member_email = $` + strconv.Itoa(len(args))
	}
	if start, end, ok := filter.Window(); ok {
		args = append(args, start)
		where += ` AND timestamp >= $` + strconv.Itoa(len(args))
		args = append(args, end)
		where += ` AND timestamp < $` + strconv.Itoa(len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		where += ` AND EXTRACT(MONTH FROM timestamp) = $` + strconv.Itoa(len(args))
	}
	return where, args
}

func (r *PaymentRepository) ListDonations(ctx context.Context, filter payment.DonationFilter) ([]*payment.Order, error) {
	where, args := donationWhere(filter)
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY timestamp DESC`

	rows, err := r.client.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list donations").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var orders []*payment.Order
	for rows.Next() {
		var o payment.Order
		var amount, donation string
		if err := rows.Scan(
			&o.ID,
			&o.MemberID,
			&o.MemberEmail,
			&o.MemberName,
			&o.LevelID,
			&o.LevelName,
			&amount,
			&donation,
			&o.Timestamp,
			&o.Status,
			&o.CreatedAt,
			&o.UpdatedAt,
			&o.CreatedBy,
			&o.UpdatedBy,
		); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan order").
				Mark(ierr.ErrDatabase)
		}
		if o.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid amount stored on order").
				Mark(ierr.ErrDatabase)
		}
		if o.DonationAmount, err = decimal.NewFromString(donation); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid donation amount stored on order").
				Mark(ierr.ErrDatabase)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to iterate orders").
			Mark(ierr.ErrDatabase)
	}
	return orders, nil
}

func (r *PaymentRepository) TotalDonations(ctx context.Context, filter payment.DonationFilter) (decimal.Decimal, error) {
	where, args := donationWhere(filter)
	query := `SELECT COALESCE(SUM(donation_amount), 0) FROM orders` + where

	var total string
	if err := r.client.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to total donations").
			Mark(ierr.ErrDatabase)
	}

	result, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Invalid donation total").
			Mark(ierr.ErrDatabase)
	}
	return result, nil
}
