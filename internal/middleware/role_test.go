package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func invokeWithRole(t *testing.T, role interface{}, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set(CtxRole, role)
	}
	h := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequireRoleAdmitsListedRole(t *testing.T) {
	rec := invokeWithRole(t, "admin", RequireRole("admin"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsEveryOtherRole(t *testing.T) {
	for _, role := range []string{"user", "partner", "moderator", ""} {
		rec := invokeWithRole(t, role, RequireRole("admin"))
		require.Equal(t, http.StatusForbidden, rec.Code, "role %q must be refused", role)
	}
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	rec := invokeWithRole(t, nil, RequireRole("admin"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth("secret")(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth("secret")(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
