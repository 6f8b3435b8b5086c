package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"foodbridge/backend/internal/session/domain"
)

type sessionRow struct {
	ID               string       `db:"id"`
	UserID           string       `db:"user_id"`
	ExpiresAt        time.Time    `db:"expires_at"`
	RevokedAt        sql.NullTime `db:"revoked_at"`
	LastSeenAt       sql.NullTime `db:"last_seen_at"`
	IPAddress        string       `db:"ip_address"`
	RefreshJti       string       `db:"refresh_jti"`
	RefreshTokenHash string       `db:"refresh_token_hash"`
	CreatedAt        time.Time    `db:"created_at"`
}

const sessionColumns = `id, user_id, expires_at, revoked_at, last_seen_at, ip_address, refresh_jti, refresh_token_hash, created_at`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.ExpiresAt, timeToNullTime(s.RevokedAt), timeToNullTime(s.LastSeenAt),
		s.IPAddress, s.RefreshJti, s.RefreshTokenHash, s.CreatedAt)
	return err
}

// Revoke marks the session with the given id as revoked. Returns an error if the update fails.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now())
	return err
}

// RevokeAllSessionsByUser revokes all sessions for the given user. Returns an error if the update fails.
func (r *PostgresRepository) RevokeAllSessionsByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, time.Now())
	return err
}

// UpdateLastSeen sets the session's last-seen timestamp for the given id.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, id, at)
	return err
}

// UpdateRefreshToken sets the session's current refresh token jti and hash for rotation.
func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET refresh_jti = $2, refresh_token_hash = $3 WHERE id = $1`,
		sessionID, jti, refreshTokenHash)
	return err
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func rowToDomain(row *sessionRow) *domain.Session {
	return &domain.Session{
		ID:               row.ID,
		UserID:           row.UserID,
		ExpiresAt:        row.ExpiresAt,
		RevokedAt:        nullTimeToPtr(row.RevokedAt),
		LastSeenAt:       nullTimeToPtr(row.LastSeenAt),
		IPAddress:        row.IPAddress,
		RefreshJti:       row.RefreshJti,
		RefreshTokenHash: row.RefreshTokenHash,
		CreatedAt:        row.CreatedAt,
	}
}
