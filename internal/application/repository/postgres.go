package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"foodbridge/backend/internal/application/domain"
)

type applicationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Address   string    `db:"address"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	URL       string    `db:"url"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const applicationColumns = `id, user_id, name, address, phone, email, url, status, created_at, updated_at`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an application repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the application for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.OrgApplication, error) {
	var row applicationRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+applicationColumns+` FROM org_applications WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

// List returns applications newest first, optionally filtered by status.
func (r *PostgresRepository) List(ctx context.Context, status *domain.Status) ([]*domain.OrgApplication, error) {
	var rows []applicationRow
	var err error
	if status != nil {
		err = r.db.SelectContext(ctx, &rows,
			`SELECT `+applicationColumns+` FROM org_applications WHERE status = $1 ORDER BY created_at DESC`,
			string(*status))
	} else {
		err = r.db.SelectContext(ctx, &rows,
			`SELECT `+applicationColumns+` FROM org_applications ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	out := make([]*domain.OrgApplication, len(rows))
	for i := range rows {
		out[i] = rowToDomain(&rows[i])
	}
	return out, nil
}

// Create persists the application. A second pending application for the same
// user trips the unique_user_pending_orgapplication partial index and is
// reported as ErrDuplicatePending.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.OrgApplication) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO org_applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.UserID, a.Name, a.Address, a.Phone, a.Email, a.URL,
		string(a.Status), a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicatePending
	}
	return err
}

// UpdateStatus sets the application's status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE org_applications SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func rowToDomain(row *applicationRow) *domain.OrgApplication {
	return &domain.OrgApplication{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Address:   row.Address,
		Phone:     row.Phone,
		Email:     row.Email,
		URL:       row.URL,
		Status:    domain.Status(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
