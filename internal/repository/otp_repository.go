package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/quantora/signals-backend/internal/model"
)

// OtpRepo persists one-time codes in the 'otps' table. It satisfies
// otp.Store. Rows are consulted "latest by created_at wins" per
// (email, purpose): the first request of a flow inserts a fresh row
// while resends update the latest one in place.
type OtpRepo struct{ DB *sql.DB }

func NewOtpRepo(db *sql.DB) *OtpRepo { return &OtpRepo{DB: db} }

// Latest returns the most recent row for (email, purpose) ordered by
// created_at descending, or sql.ErrNoRows when none exists.
func (r *OtpRepo) Latest(ctx context.Context, email, purpose string) (model.Otp, error) {
	var o model.Otp
	err := r.DB.QueryRowContext(ctx,
		`SELECT otp_id, email, purpose, code, expires_at, resend_count, last_sent, attempts, block_until, created_at
		 FROM otps WHERE email=? AND purpose=? ORDER BY created_at DESC LIMIT 1`,
		email, purpose).Scan(&o.ID, &o.Email, &o.Purpose, &o.Code, &o.ExpiresAt,
		&o.ResendCount, &o.LastSent, &o.Attempts, &o.BlockUntil, &o.CreatedAt)
	return o, err
}

// Insert creates a fresh row with zeroed bookkeeping.
func (r *OtpRepo) Insert(ctx context.Context, email, purpose, code string, expiresAt, lastSent time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO otps (email, purpose, code, expires_at, resend_count, last_sent, attempts, block_until)
		 VALUES (?,?,?,?,0,?,0,NULL)`,
		email, purpose, code, expiresAt, lastSent)
	return err
}

// Refresh replaces the code of an existing row on resend: new code, new
// expiry, resend_count bumped, last_sent updated. The attempt counter
// and any block are cleared; a fresh code starts a fresh attempt
// budget.
func (r *OtpRepo) Refresh(ctx context.Context, id uint64, code string, expiresAt, lastSent time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE otps SET code=?, expires_at=?, resend_count=resend_count+1, last_sent=?,
		 attempts=0, block_until=NULL WHERE otp_id=?`,
		code, expiresAt, lastSent, id)
	return err
}

// IncrementAttempts bumps the attempt counter and returns the new value
// in one round trip. The LAST_INSERT_ID(expr) trick makes the
// increment-and-read atomic at the store, so two racing verification
// attempts cannot both observe the pre-block count.
func (r *OtpRepo) IncrementAttempts(ctx context.Context, id uint64) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE otps SET attempts=LAST_INSERT_ID(attempts+1) WHERE otp_id=?", id)
	if err != nil {
		return 0, err
	}
	n, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Block sets the block window on a row after too many failed attempts.
func (r *OtpRepo) Block(ctx context.Context, id uint64, until time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE otps SET block_until=? WHERE otp_id=?", until, id)
	return err
}

// DeleteAll removes every row for (email, purpose). Called on
// successful verification so a used code can never be replayed.
func (r *OtpRepo) DeleteAll(ctx context.Context, email, purpose string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM otps WHERE email=? AND purpose=?", email, purpose)
	return err
}
