package postgres

import (
	"context"

	ierr "github.com/memberbase/memberbase/internal/errors"
)

// TryLockKey attempts a transaction-level advisory lock on the key without
// blocking. It returns false when another transaction holds the lock. The
// lock is released automatically when the surrounding transaction commits or
// rolls back, so it never outlives its pooled connection.
// Must be called inside WithTx.
func (c *Client) TryLockKey(ctx context.Context, key string) (bool, error) {
	tx := c.TxFromContext(ctx)
	if tx == nil {
		return false, ierr.NewError("advisory lock requires a transaction").
			WithHint("TryLockKey must be called inside WithTx").
			WithReportableDetails(map[string]interface{}{
				"key": key,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	var acquired bool
	err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, key).Scan(&acquired)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to acquire advisory lock").
			WithReportableDetails(map[string]interface{}{
				"key": key,
			}).
			Mark(ierr.ErrDatabase)
	}
	return acquired, nil
}
