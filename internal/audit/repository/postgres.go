package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"foodbridge/backend/internal/audit/domain"
)

type auditRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	UserID    string    `db:"user_id"`
	Action    string    `db:"action"`
	Resource  string    `db:"resource"`
	IP        string    `db:"ip"`
	Metadata  string    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	var row auditRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, org_id, user_id, action, resource, ip, metadata, created_at FROM audit_logs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return auditToDomain(&row), nil
}

// ListByOrg returns audit logs for the given org, newest first, paginated by limit and offset.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	var rows []auditRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, org_id, user_id, action, resource, ip, metadata, created_at
		 FROM audit_logs WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.AuditLog, len(rows))
	for i := range rows {
		out[i] = auditToDomain(&rows[i])
	}
	return out, nil
}

// Create persists the audit log to the database. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, org_id, user_id, action, resource, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.OrgID, a.UserID, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt)
	return err
}

func auditToDomain(row *auditRow) *domain.AuditLog {
	return &domain.AuditLog{
		ID:        row.ID,
		OrgID:     row.OrgID,
		UserID:    row.UserID,
		Action:    row.Action,
		Resource:  row.Resource,
		IP:        row.IP,
		Metadata:  row.Metadata,
		CreatedAt: row.CreatedAt,
	}
}
