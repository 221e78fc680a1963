package model

import "time"

// Otp models an entry in the `otps` table.  A row is the whole state of
// one verification challenge: the code itself plus the resend and
// attempt bookkeeping the policy engine decides on.  Rows are keyed
// logically by (email, purpose); when several rows exist for the same
// pair, the latest by created_at is authoritative.
//
// Fields:
//  ID          – primary key identifier.
//  Email       – address the code was sent to.
//  Purpose     – why the code was issued ("register" or "forgot").
//  Code        – 6-digit numeric code, stored as a string.
//  ExpiresAt   – when the code stops being accepted.
//  ResendCount – how many times the code has been re-sent.
//  LastSent    – when the code was last dispatched (resend cooldown).
//  Attempts    – failed verification attempts against this row.
//  BlockUntil  – verification is refused until this time (nullable).
//  CreatedAt   – timestamp of creation.
type Otp struct {
	ID          uint64     // otps.otp_id
	Email       string     // otps.email
	Purpose     string     // otps.purpose
	Code        string     // otps.code
	ExpiresAt   time.Time  // otps.expires_at
	ResendCount int        // otps.resend_count
	LastSent    time.Time  // otps.last_sent
	Attempts    int        // otps.attempts
	BlockUntil  *time.Time // otps.block_until (nullable)
	CreatedAt   time.Time  // otps.created_at
}
