// Package otp implements the one-time-code policy engine: issuing,
// resending and verifying 6-digit email codes with attempt counting,
// resend cooldowns and a temporary block window. All state lives in a
// Store; this package only decides.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// Purpose names the flow a code belongs to. Attempt counts, cooldowns
// and blocks are scoped per (email, purpose): a user blocked on the
// forgot-password flow can still verify a registration code.
type Purpose string

const (
	PurposeRegister Purpose = "register"
	PurposeForgot   Purpose = "forgot"
)

// Policy constants. A code lives 10 minutes; a resend is allowed once a
// minute, at most 5 times; 5 failed attempts block verification of the
// pair for 10 minutes.
const (
	CodeTTL        = 10 * time.Minute
	ResendCooldown = 60 * time.Second
	MaxResends     = 5
	MaxAttempts    = 5
	BlockWindow    = 10 * time.Minute
)

// VerifyStatus is the discriminated outcome of a verification attempt.
// Expected conditions are values, not errors; only store failures
// surface as errors.
type VerifyStatus int

const (
	StatusVerified VerifyStatus = iota
	StatusExpired
	StatusInvalid
	StatusBlocked
	StatusNotFound
)

func (s VerifyStatus) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusExpired:
		return "expired"
	case StatusInvalid:
		return "invalid"
	case StatusBlocked:
		return "blocked"
	case StatusNotFound:
		return "not_found"
	}
	return "unknown"
}

// VerifyResult carries the outcome plus the block deadline when the
// status is StatusBlocked, so callers can tell clients how long to back
// off.
type VerifyResult struct {
	Status       VerifyStatus
	BlockedUntil time.Time
}

// RateLimitedError is returned by Request when the resend cooldown has
// not elapsed. RetryAfter is how long the caller must wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("otp resend cooldown active, retry in %s", e.RetryAfter.Round(time.Second))
}

// GenerateCode returns a 6-digit numeric code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// codesEqual compares a stored and a submitted code in constant time.
func codesEqual(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
