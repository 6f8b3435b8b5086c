package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"foodbridge/backend/internal/joinrequest/domain"
)

type joinRequestRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	OrgID     string    `db:"org_id"`
	Note      string    `db:"note"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const joinRequestColumns = `id, user_id, org_id, note, status, created_at, updated_at`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a join request repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the join request for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	var row joinRequestRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+joinRequestColumns+` FROM join_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

// List returns join requests newest first matching the filter.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*domain.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests`
	var where []string
	var args []interface{}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.OrgID != nil {
		args = append(args, *f.OrgID)
		where = append(where, fmt.Sprintf("org_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var rows []joinRequestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*domain.JoinRequest, len(rows))
	for i := range rows {
		out[i] = rowToDomain(&rows[i])
	}
	return out, nil
}

// Create persists the join request. A second pending request for the same
// (user, org) trips the unique_user_pending_joinrequest partial index and is
// reported as ErrDuplicatePending.
func (r *PostgresRepository) Create(ctx context.Context, j *domain.JoinRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO join_requests (`+joinRequestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		j.ID, j.UserID, j.OrgID, j.Note, string(j.Status), j.CreatedAt, j.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicatePending
	}
	return err
}

// UpdateStatus sets the join request's status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE join_requests SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	return err
}

// Delete removes the join request. Returns false if no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM join_requests WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func rowToDomain(row *joinRequestRow) *domain.JoinRequest {
	return &domain.JoinRequest{
		ID:        row.ID,
		UserID:    row.UserID,
		OrgID:     row.OrgID,
		Note:      row.Note,
		Status:    domain.Status(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
