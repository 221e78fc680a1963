// Package queue defines message payloads exchanged over the message broker.
package queue

// AnalysisPublishedEvent is published when a new market analysis goes
// live. It carries enough information for downstream consumers to fan
// the post out to connected subscribers without querying the primary
// database.
type AnalysisPublishedEvent struct {
	AnalysisID  uint64 `json:"analysis_id"`
	Pair        string `json:"pair"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url"`
	PublishedAt string `json:"published_at"`
}
