package model

import "time"

// Signal is a trading signal post.  Only rows with status "active" are
// served to subscribers; "scheduled" rows are stored but held back.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – headline of the signal.
//  Body        – full signal text.
//  AssetType   – instrument class (e.g. "crypto", "forex").
//  Symbol      – traded symbol (e.g. "BTCUSDT").
//  Visibility  – "public", "premium" or "private".
//  Status      – "active", "scheduled" or "cancelled".
//  Metadata    – free-form JSON blob (nullable).
//  ScheduledAt – future publish time for scheduled signals (nullable).
//  AuthorID    – admin who created the signal.
type Signal struct {
	ID          uint64     // signals.signal_id
	Title       string     // signals.title
	Body        string     // signals.body
	AssetType   string     // signals.asset_type
	Symbol      string     // signals.symbol
	Visibility  string     // signals.visibility
	Status      string     // signals.status
	Metadata    *string    // signals.metadata (nullable JSON)
	ScheduledAt *time.Time // signals.scheduled_at (nullable)
	AuthorID    uint64     // signals.author_id
	CreatedAt   time.Time  // signals.created_at
	UpdatedAt   time.Time  // signals.updated_at
}

// AnalysisPair is a chart analysis post for one trading pair.  Active,
// unscheduled pairs are announced to the premium chat channel when
// created; scheduled or inactive ones are stored silently.
type AnalysisPair struct {
	ID            uint64     // analysis_pairs.analysis_id
	Category      string     // analysis_pairs.category ("Crypto" or "Forex")
	Symbol        string     // analysis_pairs.symbol
	GraphImageURL *string    // analysis_pairs.graph_image_url (nullable)
	Description   string     // analysis_pairs.description
	IsScheduled   bool       // analysis_pairs.is_scheduled
	ScheduledFor  *time.Time // analysis_pairs.scheduled_for (nullable)
	Status        string     // analysis_pairs.status
	Visibility    string     // analysis_pairs.visibility
	AuthorID      uint64     // analysis_pairs.author_id
	CreatedAt     time.Time  // analysis_pairs.created_at
}
