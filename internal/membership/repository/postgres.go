package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"foodbridge/backend/internal/membership/domain"
)

type membershipRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	OrgID     string    `db:"org_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetMembershipByUser returns the user's membership, or nil if the user is unaffiliated.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembershipByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	var row membershipRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, user_id, org_id, role, created_at FROM memberships WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

// ListMembershipsByOrg returns all memberships for the given org. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListMembershipsByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	var rows []membershipRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, org_id, role, created_at FROM memberships WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Membership, len(rows))
	for i := range rows {
		out[i] = rowToDomain(&rows[i])
	}
	return out, nil
}

// Upsert assigns (org, role) to the user. The unique index on user_id makes
// the replacement a single atomic statement regardless of the prior org.
func (r *PostgresRepository) Upsert(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (id, user_id, org_id, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET org_id = EXCLUDED.org_id, role = EXCLUDED.role`,
		m.ID, m.UserID, m.OrgID, string(m.Role), m.CreatedAt)
	return err
}

// DeleteByUser removes the user's membership. Returns false if the user had none.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func rowToDomain(row *membershipRow) *domain.Membership {
	return &domain.Membership{
		ID:        row.ID,
		UserID:    row.UserID,
		OrgID:     row.OrgID,
		Role:      domain.Role(row.Role),
		CreatedAt: row.CreatedAt,
	}
}
