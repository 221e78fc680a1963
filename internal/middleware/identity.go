package middleware

// identity.go holds helpers shared across middleware files. The rate
// limiter uses currentUserID to build per-user bucket keys; requests
// that have not passed JWTAuth fall back to "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's id as a string, or
// "anon" when the request carries no identity.
func currentUserID(c echo.Context) string {
	if v := c.Get(CtxUserID); v != nil {
		if id, ok := v.(uint64); ok && id > 0 {
			return strconv.FormatUint(id, 10)
		}
	}
	return "anon"
}
