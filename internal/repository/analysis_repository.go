package repository

import (
	"context"
	"database/sql"

	"github.com/quantora/signals-backend/internal/model"
)

// AnalysisRepo persists rows of the 'analysis_pairs' table.
type AnalysisRepo struct{ DB *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{DB: db} }

const analysisColumns = `analysis_id, category, symbol, graph_image_url, description,
 is_scheduled, scheduled_for, status, visibility, author_id, created_at`

// Insert creates an analysis pair and returns the stored row.
func (r *AnalysisRepo) Insert(ctx context.Context, a model.AnalysisPair) (model.AnalysisPair, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO analysis_pairs (category, symbol, graph_image_url, description, is_scheduled, scheduled_for, status, visibility, author_id)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		a.Category, a.Symbol, a.GraphImageURL, a.Description, a.IsScheduled, a.ScheduledFor, a.Status, a.Visibility, a.AuthorID)
	if err != nil {
		return model.AnalysisPair{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.AnalysisPair{}, err
	}

	var out model.AnalysisPair
	err = r.DB.QueryRowContext(ctx,
		"SELECT "+analysisColumns+" FROM analysis_pairs WHERE analysis_id=? LIMIT 1",
		id).Scan(&out.ID, &out.Category, &out.Symbol, &out.GraphImageURL, &out.Description,
		&out.IsScheduled, &out.ScheduledFor, &out.Status, &out.Visibility, &out.AuthorID, &out.CreatedAt)
	return out, err
}

// ByCategory returns one page of pairs in a category, newest first.
func (r *AnalysisRepo) ByCategory(ctx context.Context, category string, limit, offset int) ([]model.AnalysisPair, error) {
	return r.query(ctx,
		"SELECT "+analysisColumns+" FROM analysis_pairs WHERE category=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		category, limit, offset)
}

// TopByCategory returns the latest pairs in a category for the
// dashboard "top pairs" widget.
func (r *AnalysisRepo) TopByCategory(ctx context.Context, category string, limit int) ([]model.AnalysisPair, error) {
	return r.query(ctx,
		"SELECT "+analysisColumns+" FROM analysis_pairs WHERE category=? ORDER BY created_at DESC LIMIT ?",
		category, limit)
}

func (r *AnalysisRepo) query(ctx context.Context, q string, args ...any) ([]model.AnalysisPair, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisPair
	for rows.Next() {
		var a model.AnalysisPair
		if err := rows.Scan(&a.ID, &a.Category, &a.Symbol, &a.GraphImageURL, &a.Description,
			&a.IsScheduled, &a.ScheduledFor, &a.Status, &a.Visibility, &a.AuthorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
