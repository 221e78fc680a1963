package repository

import (
	"context"
	"database/sql"

	"github.com/quantora/signals-backend/internal/model"
)

// AnnouncementRepo persists rows of the 'announcements' table.
type AnnouncementRepo struct{ DB *sql.DB }

func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo { return &AnnouncementRepo{DB: db} }

// Insert creates an announcement.
func (r *AnnouncementRepo) Insert(ctx context.Context, title, description, link string, isActive bool) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO announcements (title, description, link, is_active) VALUES (?,?,?,?)",
		title, description, link, isActive)
	return err
}

// ActivePage returns one page of active announcements, newest first,
// along with the total active count for pagination.
func (r *AnnouncementRepo) ActivePage(ctx context.Context, limit, offset int) ([]model.Announcement, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM announcements WHERE is_active=TRUE").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT announcement_id, title, description, link, is_active, created_at, updated_at
		 FROM announcements WHERE is_active=TRUE ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Announcement, 0, limit)
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Link, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
