package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/memberbase/memberbase/internal/domain/membership"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/postgres"
	"github.com/memberbase/memberbase/internal/types"
)

type MembershipRepository struct {
	client *postgres.Client
	logger *logger.Logger
}

func NewMembershipRepository(client *postgres.Client, logger *logger.Logger) membership.Repository {
	return &MembershipRepository{client: client, logger: logger}
}

const membershipColumns = `
	member_id, member_email, level_id, end_date, membership_status,
	status, created_at, updated_at, created_by, updated_by
`

func (r *MembershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	if err := m.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.client.Conn(ctx).ExecContext(ctx, query,
		m.MemberID,
		m.MemberEmail,
		m.LevelID,
		m.EndDate,
		m.MembershipStatus,
		m.Status,
		m.CreatedAt,
		m.UpdatedAt,
		m.CreatedBy,
		m.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Member already has a membership record").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create membership").
			WithReportableDetails(map[string]interface{}{
				"member_id": m.MemberID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *MembershipRepository) GetByMemberID(ctx context.Context, memberID string) (*membership.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE member_id = $1 AND status = $2`

	var m membership.Membership
	err := r.client.Conn(ctx).QueryRowContext(ctx, query, memberID, types.StatusPublished).Scan(
		&m.MemberID,
		&m.MemberEmail,
		&m.LevelID,
		&m.EndDate,
		&m.MembershipStatus,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.CreatedBy,
		&m.UpdatedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("membership not found").
				WithHint("Member has no membership record").
				WithReportableDetails(map[string]interface{}{
					"member_id": memberID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load membership").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *MembershipRepository) GetCurrentEndDate(ctx context.Context, memberID string) (*time.Time, error) {
	m, err := r.GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return m.EndDate, nil
}

func (r *MembershipRepository) GetCurrentLevel(ctx context.Context, memberID string) (string, error) {
	m, err := r.GetByMemberID(ctx, memberID)
	if err != nil {
		return "", err
	}
	return m.LevelID, nil
}

func (r *MembershipRepository) ChangeLevel(ctx context.Context, memberID, levelID string, endDate *time.Time, status types.MembershipStatus) error {
	query := `
		UPDATE memberships
		SET level_id = $1, end_date = $2, membership_status = $3,
			updated_at = NOW(), updated_by = $4
		WHERE member_id = $5 AND status = $6
	`

	res, err := r.client.Conn(ctx).ExecContext(ctx, query,
		levelID,
		endDate,
		status,
		types.GetUserID(ctx),
		memberID,
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to change membership level").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
				"level_id":  levelID,
			}).
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("membership not found").
			WithReportableDetails(map[string]interface{}{
				"member_id": memberID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *MembershipRepository) ListActive(ctx context.Context) ([]*membership.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE status = $1 AND membership_status = $2 AND level_id <> ''
		ORDER BY member_id
	`

	rows, err := r.client.Conn(ctx).QueryContext(ctx, query, types.StatusPublished, types.MembershipStatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list active memberships").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var memberships []*membership.Membership
	for rows.Next() {
		var m membership.Membership
		if err := rows.Scan(
			&m.MemberID,
			&m.MemberEmail,
			&m.LevelID,
			&m.EndDate,
			&m.MembershipStatus,
			&m.Status,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.CreatedBy,
			&m.UpdatedBy,
		); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan membership").
				Mark(ierr.ErrDatabase)
		}
		memberships = append(memberships, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to iterate memberships").
			Mark(ierr.ErrDatabase)
	}
	return memberships, nil
}
