package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	issued, err := NewAccessToken(testSecret, AccessClaims{
		UserID:             42,
		Email:              "user@example.com",
		Role:               "user",
		SubscriptionPlan:   "yearly",
		SubscriptionStatus: "active",
	}, 15)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)

	claims, err := ParseAccessToken(testSecret, issued.Token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, "yearly", claims.SubscriptionPlan)
	require.Equal(t, "active", claims.SubscriptionStatus)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	issued, err := NewRefreshToken(testSecret, 42, 7)
	require.NoError(t, err)

	claims, err := ParseRefreshToken(testSecret, issued.Token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issued, err := NewAccessToken(testSecret, AccessClaims{UserID: 1, Role: "user"}, 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", issued.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(testSecret, "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	// A refresh token parses as an access token structurally, but its
	// identity claims are empty; callers must not treat it as one.
	issued, err := NewRefreshToken(testSecret, 42, 7)
	require.NoError(t, err)

	claims, err := ParseAccessToken(testSecret, issued.Token)
	require.NoError(t, err)
	require.Zero(t, claims.UserID)
	require.Empty(t, claims.Role)
}
