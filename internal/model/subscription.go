package model

import "time"

// Subscription records one granted plan for a user.  A user may have
// multiple historical rows; the current subscription is the most recent
// by created_at.  EndDate is nil exactly when the plan never expires
// (lifetime_free and partner-derived plans).
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the subscription.
//  PlanType  – "free", "monthly", "yearly" or "lifetime_free".
//  Status    – "active" or "cancelled".
//  StartDate – when the plan took effect.
//  EndDate   – when the plan lapses; nil means non-expiring.
//  CreatedAt – creation timestamp.
type Subscription struct {
	ID        uint64     // subscriptions.subscription_id
	UserID    uint64     // subscriptions.user_id
	PlanType  string     // subscriptions.plan_type
	Status    string     // subscriptions.status
	StartDate time.Time  // subscriptions.start_date
	EndDate   *time.Time // subscriptions.end_date (nullable)
	CreatedAt time.Time  // subscriptions.created_at
}

// SubscriptionVerification is a submitted proof-of-payment screenshot
// awaiting admin review.  A user has at most one pending row at a time;
// that uniqueness is enforced at submission.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – submitting user.
//  ScreenshotURL – stored upload path of the payment screenshot.
//  ReviewStatus  – "pending", "approved" or "rejected".
//  CreatedAt     – when the proof was submitted.
//  ReviewedAt    – when an admin decided (nullable while pending).
type SubscriptionVerification struct {
	ID            uint64     // subscription_verifications.verification_id
	UserID        uint64     // subscription_verifications.user_id
	ScreenshotURL string     // subscription_verifications.screenshot_url
	ReviewStatus  string     // subscription_verifications.review_status
	CreatedAt     time.Time  // subscription_verifications.created_at
	ReviewedAt    *time.Time // subscription_verifications.reviewed_at (nullable)
}
