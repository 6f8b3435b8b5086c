package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"foodbridge/backend/internal/listing/domain"
)

type donationRow struct {
	ID             string       `db:"id"`
	OrgID          string       `db:"org_id"`
	Description    string       `db:"description"`
	Picture        string       `db:"picture"`
	ExpirationDate sql.NullTime `db:"expiration_date"`
	CreatedAt      time.Time    `db:"created_at"`
	DeactivatedAt  sql.NullTime `db:"deactivated_at"`
}

type requestRow struct {
	ID            string       `db:"id"`
	OrgID         string       `db:"org_id"`
	Description   string       `db:"description"`
	CreatedAt     time.Time    `db:"created_at"`
	DeactivatedAt sql.NullTime `db:"deactivated_at"`
}

type traitRow struct {
	ListingID string `db:"listing_id"`
	Trait     int    `db:"trait"`
}

const donationColumns = `id, org_id, description, picture, expiration_date, created_at, deactivated_at`
const requestColumns = `id, org_id, description, created_at, deactivated_at`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a listing repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetDonationByID returns the donation for id with traits attached, or nil if
// not found. It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetDonationByID(ctx context.Context, id string) (*domain.Donation, error) {
	var row donationRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d := donationRowToDomain(&row)
	traits, err := r.loadTraits(ctx, "donation_traits", "donation_id", []string{id})
	if err != nil {
		return nil, err
	}
	d.Traits = traits[id]
	return d, nil
}

// ListDonations returns donations newest first with traits attached.
func (r *PostgresRepository) ListDonations(ctx context.Context, f Filter) ([]*domain.Donation, error) {
	query, args := buildListQuery(donationColumns, "donations", f)
	var rows []donationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	out := make([]*domain.Donation, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
		out[i] = donationRowToDomain(&rows[i])
	}
	traits, err := r.loadTraits(ctx, "donation_traits", "donation_id", ids)
	if err != nil {
		return nil, err
	}
	for _, d := range out {
		d.Traits = traits[d.ID]
	}
	return out, nil
}

// CreateDonation persists the donation and its traits. The ON CONFLICT clause
// makes repeated trait values a single row.
func (r *PostgresRepository) CreateDonation(ctx context.Context, d *domain.Donation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO donations (`+donationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.OrgID, d.Description, d.Picture,
		timeToNullTime(d.ExpirationDate), d.CreatedAt, timeToNullTime(d.DeactivatedAt))
	if err != nil {
		return err
	}
	return r.insertTraits(ctx, "donation_traits", "donation_id", d.ID, d.Traits)
}

// DeactivateDonation soft-deletes the donation and returns its org id. The
// row stays fetchable.
func (r *PostgresRepository) DeactivateDonation(ctx context.Context, id string) (string, error) {
	return r.deactivate(ctx, "donations", id)
}

// GetRequestByID returns the request for id with traits attached, or nil if
// not found.
func (r *PostgresRepository) GetRequestByID(ctx context.Context, id string) (*domain.Request, error) {
	var row requestRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	req := requestRowToDomain(&row)
	traits, err := r.loadTraits(ctx, "request_traits", "request_id", []string{id})
	if err != nil {
		return nil, err
	}
	req.Traits = traits[id]
	return req, nil
}

// ListRequests returns requests newest first with traits attached.
func (r *PostgresRepository) ListRequests(ctx context.Context, f Filter) ([]*domain.Request, error) {
	query, args := buildListQuery(requestColumns, "requests", f)
	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	out := make([]*domain.Request, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
		out[i] = requestRowToDomain(&rows[i])
	}
	traits, err := r.loadTraits(ctx, "request_traits", "request_id", ids)
	if err != nil {
		return nil, err
	}
	for _, req := range out {
		req.Traits = traits[req.ID]
	}
	return out, nil
}

// CreateRequest persists the request and its traits.
func (r *PostgresRepository) CreateRequest(ctx context.Context, req *domain.Request) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.OrgID, req.Description, req.CreatedAt, timeToNullTime(req.DeactivatedAt))
	if err != nil {
		return err
	}
	return r.insertTraits(ctx, "request_traits", "request_id", req.ID, req.Traits)
}

// DeactivateRequest soft-deletes the request and returns its org id. The row
// stays fetchable.
func (r *PostgresRepository) DeactivateRequest(ctx context.Context, id string) (string, error) {
	return r.deactivate(ctx, "requests", id)
}

func (r *PostgresRepository) deactivate(ctx context.Context, table, id string) (string, error) {
	var orgID string
	err := r.db.GetContext(ctx, &orgID,
		`UPDATE `+table+` SET deactivated_at = $2
		 WHERE id = $1 AND deactivated_at IS NULL
		 RETURNING org_id`, id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return orgID, nil
}

func (r *PostgresRepository) insertTraits(ctx context.Context, table, fk, id string, traits []domain.Trait) error {
	for _, t := range traits {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO `+table+` (`+fk+`, trait) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, int(t))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) loadTraits(ctx context.Context, table, fk string, ids []string) (map[string][]domain.Trait, error) {
	query, args, err := sqlx.In(
		`SELECT `+fk+` AS listing_id, trait FROM `+table+` WHERE `+fk+` IN (?) ORDER BY trait`, ids)
	if err != nil {
		return nil, err
	}
	var rows []traitRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.Trait, len(ids))
	for _, row := range rows {
		out[row.ListingID] = append(out[row.ListingID], domain.Trait(row.Trait))
	}
	return out, nil
}

func buildListQuery(columns, table string, f Filter) (string, []interface{}) {
	query := `SELECT ` + columns + ` FROM ` + table
	var where []string
	var args []interface{}
	if f.OrgID != nil {
		args = append(args, *f.OrgID)
		where = append(where, fmt.Sprintf("org_id = $%d", len(args)))
	}
	if f.Active != nil {
		if *f.Active {
			where = append(where, "deactivated_at IS NULL")
		} else {
			where = append(where, "deactivated_at IS NOT NULL")
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
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

func donationRowToDomain(row *donationRow) *domain.Donation {
	return &domain.Donation{
		ID:             row.ID,
		OrgID:          row.OrgID,
		Description:    row.Description,
		Picture:        row.Picture,
		ExpirationDate: nullTimeToPtr(row.ExpirationDate),
		CreatedAt:      row.CreatedAt,
		DeactivatedAt:  nullTimeToPtr(row.DeactivatedAt),
	}
}

func requestRowToDomain(row *requestRow) *domain.Request {
	return &domain.Request{
		ID:            row.ID,
		OrgID:         row.OrgID,
		Description:   row.Description,
		CreatedAt:     row.CreatedAt,
		DeactivatedAt: nullTimeToPtr(row.DeactivatedAt),
	}
}
