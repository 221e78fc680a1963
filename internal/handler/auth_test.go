package handler

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantora/signals-backend/internal/config"
	"github.com/quantora/signals-backend/internal/model"
	"github.com/quantora/signals-backend/internal/utils"
)

type fakeSubs struct {
	sub model.Subscription
	err error
}

func (f fakeSubs) LatestForUser(context.Context, uint64) (model.Subscription, error) {
	return f.sub, f.err
}

func tokenTestHandler(subs subscriptionSource) *AuthHandler {
	return &AuthHandler{
		Cfg:  config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7},
		Subs: subs,
	}
}

func TestIssuePairDefaultsToFreeWithoutSubscription(t *testing.T) {
	h := tokenTestHandler(fakeSubs{err: sql.ErrNoRows})
	u := model.User{ID: 7, FullName: "Test User", Email: "user@example.com", RoleName: "user"}

	resp, err := h.issuePair(context.Background(), u)
	require.NoError(t, err)
	require.Equal(t, "free", resp.User.SubscriptionPlan)

	claims, err := utils.ParseAccessToken("test-secret", resp.Access.Token)
	require.NoError(t, err)
	require.Equal(t, "free", claims.SubscriptionPlan)
	require.Equal(t, "inactive", claims.SubscriptionStatus)
}

func TestIssuePairPropagatesStoreFailure(t *testing.T) {
	h := tokenTestHandler(fakeSubs{err: errors.New("connection reset")})
	u := model.User{ID: 7, Email: "user@example.com", RoleName: "user"}

	// A transient store failure must surface, not silently strip a
	// paying subscriber down to the free plan.
	_, err := h.issuePair(context.Background(), u)
	require.Error(t, err)
}

func TestIssuePairCarriesPlanAndExpiry(t *testing.T) {
	past := time.Now().UTC().Add(-24 * time.Hour)
	h := tokenTestHandler(fakeSubs{sub: model.Subscription{
		UserID: 7, PlanType: "monthly", Status: "active", EndDate: &past,
	}})
	u := model.User{ID: 7, Email: "user@example.com", RoleName: "user"}

	resp, err := h.issuePair(context.Background(), u)
	require.NoError(t, err)

	claims, err := utils.ParseAccessToken("test-secret", resp.Access.Token)
	require.NoError(t, err)
	require.Equal(t, "monthly", claims.SubscriptionPlan)
	require.Equal(t, "expired", claims.SubscriptionStatus, "lapsed end date reads as expired")
}
