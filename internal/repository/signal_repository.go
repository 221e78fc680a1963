package repository

import (
	"context"
	"database/sql"

	"github.com/quantora/signals-backend/internal/model"
)

// SignalRepo persists rows of the 'signals' table.
type SignalRepo struct{ DB *sql.DB }

func NewSignalRepo(db *sql.DB) *SignalRepo { return &SignalRepo{DB: db} }

// Insert creates a signal and returns the new id.
func (r *SignalRepo) Insert(ctx context.Context, s model.Signal) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO signals (title, body, asset_type, symbol, visibility, status, metadata, scheduled_at, author_id)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		s.Title, s.Body, s.AssetType, s.Symbol, s.Visibility, s.Status, s.Metadata, s.ScheduledAt, s.AuthorID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ActivePage returns up to limit active signals starting at offset,
// newest first. Callers fetch limit+1 to detect whether a next page
// exists without a second count query.
func (r *SignalRepo) ActivePage(ctx context.Context, limit, offset int) ([]model.Signal, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT signal_id, title, body, asset_type, symbol, visibility, status, metadata, scheduled_at, author_id, created_at, updated_at
		 FROM signals WHERE status='active' ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Signal, 0, limit)
	for rows.Next() {
		var s model.Signal
		if err := rows.Scan(&s.ID, &s.Title, &s.Body, &s.AssetType, &s.Symbol, &s.Visibility, &s.Status,
			&s.Metadata, &s.ScheduledAt, &s.AuthorID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
