package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/quantora/signals-backend/internal/model"
)

// SubscriptionRepo persists rows of the 'subscriptions' table.
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

// Insert creates an active subscription row and returns it.
func (r *SubscriptionRepo) Insert(ctx context.Context, userID uint64, planType string, start time.Time, end *time.Time) (model.Subscription, error) {
	return insertSubscription(ctx, r.DB, userID, planType, start, end)
}

// InsertTx is Insert inside an existing transaction, used when the
// subscription must commit together with another write (user creation,
// verification approval).
func (r *SubscriptionRepo) InsertTx(ctx context.Context, tx *sql.Tx, userID uint64, planType string, start time.Time, end *time.Time) (model.Subscription, error) {
	return insertSubscription(ctx, tx, userID, planType, start, end)
}

func insertSubscription(ctx context.Context, db execer, userID uint64, planType string, start time.Time, end *time.Time) (model.Subscription, error) {
	res, err := db.ExecContext(ctx,
		"INSERT INTO subscriptions (user_id, plan_type, status, start_date, end_date) VALUES (?,?, 'active', ?, ?)",
		userID, planType, start, end)
	if err != nil {
		return model.Subscription{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{
		ID:        uint64(id),
		UserID:    userID,
		PlanType:  planType,
		Status:    "active",
		StartDate: start,
		EndDate:   end,
	}, nil
}

// LatestForUser returns the user's current subscription: the most
// recent row by created_at. sql.ErrNoRows means the user is on the
// implicit free tier.
func (r *SubscriptionRepo) LatestForUser(ctx context.Context, userID uint64) (model.Subscription, error) {
	var s model.Subscription
	err := r.DB.QueryRowContext(ctx,
		`SELECT subscription_id, user_id, plan_type, status, start_date, end_date, created_at
		 FROM subscriptions WHERE user_id=? ORDER BY created_at DESC LIMIT 1`,
		userID).Scan(&s.ID, &s.UserID, &s.PlanType, &s.Status, &s.StartDate, &s.EndDate, &s.CreatedAt)
	return s, err
}

// AdminRow is the admin dashboard projection joining subscriber info.
type AdminRow struct {
	model.Subscription
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// ListFilter narrows the admin subscription listing. Zero values mean
// "no filter".
type ListFilter struct {
	Email    string // substring match on the subscriber email
	PlanType string // exact plan type
}

// AdminList returns one page of subscriptions joined with their users,
// newest first, plus the total count for the same filter.
func (r *SubscriptionRepo) AdminList(ctx context.Context, f ListFilter, limit, offset int) ([]AdminRow, int, error) {
	where := []string{}
	args := []any{}
	if f.Email != "" {
		where = append(where, "u.email LIKE ?")
		args = append(args, "%"+f.Email+"%")
	}
	if f.PlanType != "" {
		where = append(where, "s.plan_type = ?")
		args = append(args, f.PlanType)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions s JOIN users u ON s.user_id=u.user_id"+clause,
		args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT s.subscription_id, s.user_id, s.plan_type, s.status, s.start_date, s.end_date, s.created_at,
		 u.email, u.full_name
		 FROM subscriptions s JOIN users u ON s.user_id=u.user_id`+clause+
			" ORDER BY s.created_at DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]AdminRow, 0, limit)
	for rows.Next() {
		var a AdminRow
		if err := rows.Scan(&a.ID, &a.UserID, &a.PlanType, &a.Status, &a.StartDate, &a.EndDate, &a.CreatedAt,
			&a.Email, &a.FullName); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// UpdateFields carries the optional admin edits to a subscription. Nil
// fields are left unchanged.
type UpdateFields struct {
	Status    *string
	StartDate *time.Time
	EndDate   *time.Time
	PlanType  *string
}

// Update applies the non-nil fields and returns the updated row.
// sql.ErrNoRows is returned when the subscription does not exist or no
// fields were provided.
func (r *SubscriptionRepo) Update(ctx context.Context, id uint64, fields UpdateFields) (model.Subscription, error) {
	set := []string{}
	args := []any{}
	if fields.Status != nil {
		set = append(set, "status=?")
		args = append(args, *fields.Status)
	}
	if fields.StartDate != nil {
		set = append(set, "start_date=?")
		args = append(args, *fields.StartDate)
	}
	if fields.EndDate != nil {
		set = append(set, "end_date=?")
		args = append(args, *fields.EndDate)
	}
	if fields.PlanType != nil {
		set = append(set, "plan_type=?")
		args = append(args, *fields.PlanType)
	}
	if len(set) == 0 {
		return model.Subscription{}, sql.ErrNoRows
	}

	_, err := r.DB.ExecContext(ctx,
		"UPDATE subscriptions SET "+strings.Join(set, ", ")+" WHERE subscription_id=?",
		append(args, id)...)
	if err != nil {
		return model.Subscription{}, err
	}

	// Re-read rather than trusting RowsAffected: MySQL reports 0 for
	// no-op updates as well as missing rows.
	var s model.Subscription
	err = r.DB.QueryRowContext(ctx,
		`SELECT subscription_id, user_id, plan_type, status, start_date, end_date, created_at
		 FROM subscriptions WHERE subscription_id=? LIMIT 1`,
		id).Scan(&s.ID, &s.UserID, &s.PlanType, &s.Status, &s.StartDate, &s.EndDate, &s.CreatedAt)
	return s, err
}
