package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quantora/signals-backend/internal/model"
)

// PartnerRepo persists rows of the 'partners' table.
type PartnerRepo struct{ DB *sql.DB }

func NewPartnerRepo(db *sql.DB) *PartnerRepo { return &PartnerRepo{DB: db} }

// Create inserts a partner and returns the stored row.
func (r *PartnerRepo) Create(ctx context.Context, name, code, link string) (model.Partner, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO partners (partner_name, partner_code, partner_link) VALUES (?,?,?)",
		name, code, link)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Partner{}, ErrPartnerCodeExists
		}
		return model.Partner{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Partner{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

const partnerColumns = "partner_id, partner_name, partner_code, partner_link, created_at, updated_at"

func scanPartner(row *sql.Row) (model.Partner, error) {
	var p model.Partner
	err := row.Scan(&p.ID, &p.PartnerName, &p.PartnerCode, &p.PartnerLink, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetByID fetches a partner by id.
func (r *PartnerRepo) GetByID(ctx context.Context, id uint64) (model.Partner, error) {
	return scanPartner(r.DB.QueryRowContext(ctx,
		"SELECT "+partnerColumns+" FROM partners WHERE partner_id=? LIMIT 1", id))
}

// GetByCode resolves a partner from its referral code. Registration
// uses this to link a new user to the referring partner.
func (r *PartnerRepo) GetByCode(ctx context.Context, code string) (model.Partner, error) {
	return scanPartner(r.DB.QueryRowContext(ctx,
		"SELECT "+partnerColumns+" FROM partners WHERE partner_code=? LIMIT 1", code))
}

// All returns every partner ordered by name, for the admin dropdown.
func (r *PartnerRepo) All(ctx context.Context) ([]model.Partner, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+partnerColumns+" FROM partners ORDER BY partner_name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Partner
	for rows.Next() {
		var p model.Partner
		if err := rows.Scan(&p.ID, &p.PartnerName, &p.PartnerCode, &p.PartnerLink, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies the non-empty fields (COALESCE-style) and returns the
// updated row. sql.ErrNoRows is returned when the partner is missing.
func (r *PartnerRepo) Update(ctx context.Context, id uint64, name, code, link string) (model.Partner, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return model.Partner{}, err
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE partners SET
			partner_name = COALESCE(NULLIF(?, ''), partner_name),
			partner_code = COALESCE(NULLIF(?, ''), partner_code),
			partner_link = COALESCE(NULLIF(?, ''), partner_link),
			updated_at = NOW()
		 WHERE partner_id=?`,
		name, code, link, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Partner{}, ErrPartnerCodeExists
		}
		return model.Partner{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a partner. sql.ErrNoRows when nothing matched.
func (r *PartnerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM partners WHERE partner_id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
