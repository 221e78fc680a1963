package repository

import (
	"context"
	"database/sql"

	"github.com/quantora/signals-backend/internal/model"
)

// ResultRepo persists rows of the 'results' table (published
// track-record entries).
type ResultRepo struct{ DB *sql.DB }

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{DB: db} }

// Insert creates a result entry.
func (r *ResultRepo) Insert(ctx context.Context, name, category, tp, sl string, totalWins int) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO results (name, category, tp, sl, total_wins) VALUES (?,?,?,?,?)",
		name, category, tp, sl, totalWins)
	return err
}

// Page returns one page of results, newest first.
func (r *ResultRepo) Page(ctx context.Context, limit, offset int) ([]model.Result, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT result_id, name, category, tp, sl, total_wins, created_at
		 FROM results ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Result, 0, limit)
	for rows.Next() {
		var e model.Result
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.TP, &e.SL, &e.TotalWins, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
