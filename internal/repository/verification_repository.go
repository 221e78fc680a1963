package repository

import (
	"context"
	"database/sql"

	"github.com/quantora/signals-backend/internal/model"
)

// VerificationRepo persists rows of the 'subscription_verifications'
// table: screenshots of payment proofs awaiting admin review.
type VerificationRepo struct{ DB *sql.DB }

func NewVerificationRepo(db *sql.DB) *VerificationRepo { return &VerificationRepo{DB: db} }

// Insert creates a pending verification for the user. ErrConflict is
// returned when the user already has a pending row; a user may have at
// most one open verification at a time. The guard rides in the INSERT
// itself so two concurrent uploads cannot both slip past a prior check.
func (r *VerificationRepo) Insert(ctx context.Context, userID uint64, screenshotURL string) (model.SubscriptionVerification, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO subscription_verifications (user_id, screenshot_url, review_status)
		 SELECT ?, ?, 'pending' FROM DUAL
		 WHERE NOT EXISTS (
		   SELECT 1 FROM subscription_verifications WHERE user_id=? AND review_status='pending'
		 )`,
		userID, screenshotURL, userID)
	if err != nil {
		return model.SubscriptionVerification{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.SubscriptionVerification{}, err
	}
	if n == 0 {
		return model.SubscriptionVerification{}, ErrConflict
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.SubscriptionVerification{}, err
	}
	return model.SubscriptionVerification{
		ID:            uint64(id),
		UserID:        userID,
		ScreenshotURL: screenshotURL,
		ReviewStatus:  "pending",
	}, nil
}

// PendingTx loads a verification by id inside a transaction, but only
// while it is still pending. Locks the row (FOR UPDATE) so concurrent
// reviews of the same verification serialize instead of both approving.
// sql.ErrNoRows covers both "missing" and "already reviewed".
func (r *VerificationRepo) PendingTx(ctx context.Context, tx *sql.Tx, id uint64) (model.SubscriptionVerification, error) {
	var v model.SubscriptionVerification
	err := tx.QueryRowContext(ctx,
		`SELECT verification_id, user_id, screenshot_url, review_status, created_at, reviewed_at
		 FROM subscription_verifications WHERE verification_id=? AND review_status='pending' FOR UPDATE`,
		id).Scan(&v.ID, &v.UserID, &v.ScreenshotURL, &v.ReviewStatus, &v.CreatedAt, &v.ReviewedAt)
	return v, err
}

// MarkReviewedTx stamps the review decision and time.
func (r *VerificationRepo) MarkReviewedTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE subscription_verifications SET review_status=?, reviewed_at=NOW() WHERE verification_id=?",
		status, id)
	return err
}

// PendingList returns all pending verifications, oldest first, for the
// admin review queue.
func (r *VerificationRepo) PendingList(ctx context.Context) ([]model.SubscriptionVerification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT verification_id, user_id, screenshot_url, review_status, created_at, reviewed_at
		 FROM subscription_verifications WHERE review_status='pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SubscriptionVerification
	for rows.Next() {
		var v model.SubscriptionVerification
		if err := rows.Scan(&v.ID, &v.UserID, &v.ScreenshotURL, &v.ReviewStatus, &v.CreatedAt, &v.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
