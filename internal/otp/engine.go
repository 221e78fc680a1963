package otp

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantora/signals-backend/internal/model"
)

// ErrTooManyResends is returned by Request when the resend budget for
// the current code is exhausted.
var ErrTooManyResends = errors.New("too many otp requests")

// Store is the persistence contract the engine decides over. Latest
// must return sql.ErrNoRows when no record exists for the pair.
// Refresh must reset the attempt counter and clear any block along with
// rotating the code: a block lasts until its window elapses or a new
// code is issued. IncrementAttempts must be atomic at the store
// (increment and return the new value in one operation) so racing
// verifications cannot both observe the pre-block count.
type Store interface {
	Latest(ctx context.Context, email, purpose string) (model.Otp, error)
	Insert(ctx context.Context, email, purpose, code string, expiresAt, lastSent time.Time) error
	Refresh(ctx context.Context, id uint64, code string, expiresAt, lastSent time.Time) error
	IncrementAttempts(ctx context.Context, id uint64) (int, error)
	Block(ctx context.Context, id uint64, until time.Time) error
	DeleteAll(ctx context.Context, email, purpose string) error
}

// Sender dispatches the code to the user, fire-and-forget. The SMTP
// implementation lives in internal/mailer.
type Sender interface {
	SendCode(ctx context.Context, email, code string) error
}

// Engine issues and verifies one-time codes against a Store. The clock
// is injectable for tests; zero-value nowFn means time.Now.
type Engine struct {
	store Store
	send  Sender
	log   *zap.Logger
	nowFn func() time.Time
}

func NewEngine(store Store, send Sender, log *zap.Logger) *Engine {
	return &Engine{store: store, send: send, log: log, nowFn: time.Now}
}

// WithClock replaces the engine's clock. Test helper.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.nowFn = now
	return e
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Request issues a code for (email, purpose). The first request of a
// flow inserts a fresh record; later requests reuse the latest record
// and are throttled: a *RateLimitedError before the 60s cooldown has
// elapsed, ErrTooManyResends after 5 resends of the same record.
// Neither throttle mutates the record. On success the code is handed to
// the Sender; a send failure after the state was written is logged and
// reported, but the state is not rolled back.
func (e *Engine) Request(ctx context.Context, email string, purpose Purpose) error {
	email = normalize(email)
	now := e.nowFn().UTC()

	rec, err := e.store.Latest(ctx, email, string(purpose))
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	noRecord := err == sql.ErrNoRows

	code, err := GenerateCode()
	if err != nil {
		return err
	}

	if noRecord {
		if err := e.store.Insert(ctx, email, string(purpose), code, now.Add(CodeTTL), now); err != nil {
			return err
		}
		return e.dispatch(ctx, email, code)
	}

	if since := now.Sub(rec.LastSent); since < ResendCooldown {
		return &RateLimitedError{RetryAfter: ResendCooldown - since}
	}
	if rec.ResendCount >= MaxResends {
		return ErrTooManyResends
	}

	if err := e.store.Refresh(ctx, rec.ID, code, now.Add(CodeTTL), now); err != nil {
		return err
	}
	return e.dispatch(ctx, email, code)
}

func (e *Engine) dispatch(ctx context.Context, email, code string) error {
	if err := e.send.SendCode(ctx, email, code); err != nil {
		e.log.Warn("otp mail dispatch failed", zap.String("email", email), zap.Error(err))
		return err
	}
	return nil
}

// Verify checks a submitted code for (email, purpose). The checks run
// in a fixed order: missing record, active block, expiry, then the code
// itself. A mismatch increments the attempt counter atomically; the
// attempt that reaches 5 sets a 10-minute block and reports Blocked
// rather than Invalid. A match deletes every record for the pair, so a
// verified code can never be replayed: the next verification reports
// NotFound. Errors are store failures only.
func (e *Engine) Verify(ctx context.Context, email string, purpose Purpose, submitted string) (VerifyResult, error) {
	email = normalize(email)
	now := e.nowFn().UTC()

	rec, err := e.store.Latest(ctx, email, string(purpose))
	if err == sql.ErrNoRows {
		return VerifyResult{Status: StatusNotFound}, nil
	}
	if err != nil {
		return VerifyResult{}, err
	}

	if rec.BlockUntil != nil && rec.BlockUntil.After(now) {
		return VerifyResult{Status: StatusBlocked, BlockedUntil: *rec.BlockUntil}, nil
	}
	if rec.ExpiresAt.Before(now) {
		return VerifyResult{Status: StatusExpired}, nil
	}

	if !codesEqual(rec.Code, submitted) {
		attempts, err := e.store.IncrementAttempts(ctx, rec.ID)
		if err != nil {
			return VerifyResult{}, err
		}
		if attempts >= MaxAttempts {
			until := now.Add(BlockWindow)
			if err := e.store.Block(ctx, rec.ID, until); err != nil {
				return VerifyResult{}, err
			}
			return VerifyResult{Status: StatusBlocked, BlockedUntil: until}, nil
		}
		return VerifyResult{Status: StatusInvalid}, nil
	}

	if err := e.store.DeleteAll(ctx, email, string(purpose)); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Status: StatusVerified}, nil
}
