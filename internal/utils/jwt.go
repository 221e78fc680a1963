package utils // package utils provides helper functions for token creation and parsing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessClaims is the access token payload. The five custom fields
// round-trip exactly between issue and parse; middleware and the socket
// gate read them to authorize requests without touching the database.
type AccessClaims struct {
	UserID             uint64 `json:"user_id"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	SubscriptionPlan   string `json:"subscription_plan"`
	SubscriptionStatus string `json:"subscription_status"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh token payload: just the user id.
// Refresh tokens are stateless; there is no server-side revocation
// list, expiry alone bounds their life.
type RefreshClaims struct {
	UserID uint64 `json:"userId"`
	jwt.RegisteredClaims
}

// AccessToken pairs a signed JWT with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// ErrInvalidToken is returned when a token fails signature or claim
// validation.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 access token carrying the
// user's identity and current subscription snapshot.
func NewAccessToken(secret string, claims AccessClaims, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh token for a user.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates signature, algorithm and expiry and
// returns the claims.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ResetClaims is the payload of the short-lived token issued after a
// successful forgot-password OTP verification. Scope pins the token to
// the password reset flow so an access or refresh token can never stand
// in for it.
type ResetClaims struct {
	Email string `json:"email"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

const resetScope = "password_reset"

// NewResetToken issues a token proving the holder completed the
// forgot-password OTP check for this email.
func NewResetToken(secret, email string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := ResetClaims{
		Email: email,
		Scope: resetScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseResetToken validates a reset token and returns the email it was
// issued for.
func ParseResetToken(secret, raw string) (string, error) {
	claims := &ResetClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid || claims.Scope != resetScope || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// ParseRefreshToken validates a refresh token and returns its claims.
func ParseRefreshToken(secret, raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
