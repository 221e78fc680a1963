package model

import "time"

// Announcement is a site-wide notice shown to all users while is_active.
type Announcement struct {
	ID          uint64    // announcements.announcement_id
	Title       string    // announcements.title
	Description string    // announcements.description
	Link        string    // announcements.link
	IsActive    bool      // announcements.is_active
	CreatedAt   time.Time // announcements.created_at
	UpdatedAt   time.Time // announcements.updated_at
}

// Result is a published track-record entry (take-profit/stop-loss
// outcome counts per traded name).
type Result struct {
	ID        uint64    // results.result_id
	Name      string    // results.name
	Category  string    // results.category ("Crypto" or "Forex")
	TP        string    // results.tp
	SL        string    // results.sl
	TotalWins int       // results.total_wins
	CreatedAt time.Time // results.created_at
}
