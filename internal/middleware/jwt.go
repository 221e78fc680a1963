package middleware // reusable HTTP middleware shared by the router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/utils"
)

// Context keys populated by JWTAuth. Handlers read these instead of
// re-parsing the token.
const (
	CtxUserID             = "user_id"
	CtxEmail              = "email"
	CtxRole               = "role"
	CtxSubscriptionPlan   = "subscription_plan"
	CtxSubscriptionStatus = "subscription_status"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects its claims into the request context. The provided
// secret must match the one used when issuing tokens. Wrap protected
// routes with it so handlers can read the authenticated identity via
// c.Get(CtxUserID) and friends.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxSubscriptionPlan, claims.SubscriptionPlan)
			c.Set(CtxSubscriptionStatus, claims.SubscriptionStatus)
			return next(c)
		}
	}
}
