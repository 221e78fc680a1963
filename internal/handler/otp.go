package handler

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/otp"
)

type otpVerifyReq struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}
type otpResendReq struct {
	Email string `json:"email"`
}

// otpFailure writes the non-verified outcomes of an OTP check. Blocked
// responses carry the block deadline so clients know how long to back
// off.
func otpFailure(c echo.Context, res otp.VerifyResult) error {
	switch res.Status {
	case otp.StatusNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no verification code found"})
	case otp.StatusExpired:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code expired"})
	case otp.StatusBlocked:
		secs := int(math.Ceil(time.Until(res.BlockedUntil).Seconds()))
		if secs < 0 {
			secs = 0
		}
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":         "too many failed attempts",
			"blocked_until": res.BlockedUntil.UTC(),
			"retry_after":   secs,
		})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification code"})
	}
}

// requestFailure writes the throttled outcomes of an OTP issue request.
func requestFailure(c echo.Context, err error) error {
	var rl *otp.RateLimitedError
	if errors.As(err, &rl) {
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":       "please wait before requesting another code",
			"retry_after": secs,
		})
	}
	if errors.Is(err, otp.ErrTooManyResends) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "resend limit reached, restart the flow later"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send verification code"})
}

// VerifyOtp completes registration: a correct code marks the account
// verified and logs the user straight in.
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	var req otpVerifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Otp == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Otp.Verify(ctx, req.Email, otp.PurposeRegister, req.Otp)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if res.Status != otp.StatusVerified {
		return otpFailure(c, res)
	}

	if err := h.Users.MarkVerified(ctx, req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// ResendOtp re-issues the registration code, subject to the cooldown
// and resend budget.
func (h *AuthHandler) ResendOtp(c echo.Context) error {
	var req otpResendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.IsVerified {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account already verified"})
	}

	if err := h.Otp.Request(ctx, req.Email, otp.PurposeRegister); err != nil {
		return requestFailure(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}
