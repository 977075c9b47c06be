package postgres

import (
	"context"
	"database/sql"

	"github.com/memberbase/memberbase/internal/domain/grace"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/postgres"
	"github.com/memberbase/memberbase/internal/types"
)

type GraceRepository struct {
	client *postgres.Client
	logger *logger.Logger
}

func NewGraceRepository(client *postgres.Client, logger *logger.Logger) grace.Repository {
	return &GraceRepository{client: client, logger: logger}
}

const graceColumns = `
	member_id, level_id, original_end_date, grace_end_date, state,
	status, created_at, updated_at, created_by, updated_by
`

func (r *GraceRepository) Get(ctx context.Context, memberID string) (*grace.Entry, error) {
	query := `SELECT ` + graceColumns + ` FROM grace_entries WHERE member_id = $1 AND status = $2`

	row := r.client.Conn(ctx).QueryRowContext(ctx, query, memberID, types.StatusPublished)
	entry, err := scanGraceEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("grace entry not found").
				WithHint("Member is not in a grace period").
				WithReportableDetails(map[string]interface{}{
					"member_id": memberID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load grace entry").
			Mark(ierr.ErrDatabase)
	}
	return entry, nil
}

func (r *GraceRepository) Upsert(ctx context.Context, entry *grace.Entry) error {
	query := `
		INSERT INTO grace_entries (` + graceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (member_id) DO UPDATE SET
			level_id = EXCLUDED.level_id,
			original_end_date = EXCLUDED.original_end_date,
			grace_end_date = EXCLUDED.grace_end_date,
			state = EXCLUDED.state,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`

	_, err := r.client.Conn(ctx).ExecContext(ctx, query,
		entry.MemberID,
		entry.LevelID,
		entry.OriginalEndDate,
		entry.GraceEndDate,
		entry.State,
		entry.Status,
		entry.CreatedAt,
		entry.UpdatedAt,
		entry.CreatedBy,
		entry.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to upsert grace entry").
			WithReportableDetails(map[string]interface{}{
				"member_id": entry.MemberID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *GraceRepository) MarkExiting(ctx context.Context, memberID string) error {
	query := `
		UPDATE grace_entries
		SET state = $1, updated_at = NOW(), updated_by = $2
		WHERE member_id = $3 AND status = $4
	`

	res, err := r.client.Conn(ctx).ExecContext(ctx, query,
		types.GraceStateExiting,
		types.GetUserID(ctx),
		memberID,
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to mark grace entry as exiting").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("grace entry not found").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *GraceRepository) Delete(ctx context.Context, memberID string) error {
	query := `DELETE FROM grace_entries WHERE member_id = $1`

	res, err := r.client.Conn(ctx).ExecContext(ctx, query, memberID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete grace entry").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("grace entry not found").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *GraceRepository) List(ctx context.Context) ([]*grace.Entry, error) {
	query := `SELECT ` + graceColumns + ` FROM grace_entries WHERE status = $1 ORDER BY grace_end_date`

	rows, err := r.client.Conn(ctx).QueryContext(ctx, query, types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list grace entries").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var entries []*grace.Entry
	for rows.Next() {
		entry, err := scanGraceEntry(rows)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan grace entry").
				Mark(ierr.ErrDatabase)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to iterate grace entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGraceEntry(row rowScanner) (*grace.Entry, error) {
	var entry grace.Entry
	err := row.Scan(
		&entry.MemberID,
		&entry.LevelID,
		&entry.OriginalEndDate,
		&entry.GraceEndDate,
		&entry.State,
		&entry.Status,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&entry.CreatedBy,
		&entry.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
