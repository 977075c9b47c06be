package postgres

import (
	"context"
	"database/sql"

	"github.com/memberbase/memberbase/internal/domain/level"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/postgres"
	"github.com/memberbase/memberbase/internal/types"
)

type LevelRepository struct {
	client *postgres.Client
	logger *logger.Logger
}

func NewLevelRepository(client *postgres.Client, logger *logger.Logger) level.Repository {
	return &LevelRepository{client: client, logger: logger}
}

const levelColumns = `
	id, name, period_unit, period_count,
	status, created_at, updated_at, created_by, updated_by
`

func (r *LevelRepository) Create(ctx context.Context, l *level.MembershipLevel) error {
	if err := l.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO membership_levels (` + levelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.client.Conn(ctx).ExecContext(ctx, query,
		l.ID,
		l.Name,
		l.PeriodUnit,
		l.PeriodCount,
		l.Status,
		l.CreatedAt,
		l.UpdatedAt,
		l.CreatedBy,
		l.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Membership level already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create membership level").
			WithReportableDetails(map[string]interface{}{
				"level_id": l.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *LevelRepository) GetLevel(ctx context.Context, id string) (*level.MembershipLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM membership_levels WHERE id = $1 AND status = $2`

	var l level.MembershipLevel
	err := r.client.Conn(ctx).QueryRowContext(ctx, query, id, types.StatusPublished).Scan(
		&l.ID,
		&l.Name,
		&l.PeriodUnit,
		&l.PeriodCount,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.CreatedBy,
		&l.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("membership level not found").
				WithHint("Unknown membership level").
				WithReportableDetails(map[string]interface{}{
					"level_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load membership level").
			Mark(ierr.ErrDatabase)
	}
	return &l, nil
}

func (r *LevelRepository) List(ctx context.Context) ([]*level.MembershipLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM membership_levels WHERE status = $1 ORDER BY name`

	rows, err := r.client.Conn(ctx).QueryContext(ctx, query, types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list membership levels").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var levels []*level.MembershipLevel
	for rows.Next() {
		var l level.MembershipLevel
		if err := rows.Scan(
			&l.ID,
			&l.Name,
			&l.PeriodUnit,
			&l.PeriodCount,
			&l.Status,
			&l.CreatedAt,
			&l.UpdatedAt,
			&l.CreatedBy,
			&l.UpdatedBy,
		); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan membership level").
				Mark(ierr.ErrDatabase)
		}
		levels = append(levels, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to iterate membership levels").
			Mark(ierr.ErrDatabase)
	}
	return levels, nil
}
