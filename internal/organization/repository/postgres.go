package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"foodbridge/backend/internal/organization/domain"
)

type orgRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Address   string    `db:"address"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	URL       string    `db:"url"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orgColumns = `id, name, address, email, phone, url, status, created_at`

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	var row orgRow
	err := r.db.GetContext(ctx, &row, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return orgToDomain(&row), nil
}

// ListByStatus returns all organizations with the given status, oldest first.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status domain.OrgStatus) ([]*domain.Org, error) {
	var rows []orgRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+orgColumns+` FROM organizations WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Org, len(rows))
	for i := range rows {
		out[i] = orgToDomain(&rows[i])
	}
	return out, nil
}

// Create persists the organization to the database. The org must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, address, email, phone, url, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.Name, o.Address, o.Email, o.Phone, o.URL, string(o.Status), o.CreatedAt)
	return err
}

func orgToDomain(row *orgRow) *domain.Org {
	return &domain.Org{
		ID:        row.ID,
		Name:      row.Name,
		Address:   row.Address,
		Email:     row.Email,
		Phone:     row.Phone,
		URL:       row.URL,
		Status:    domain.OrgStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}
}
