package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/otp"
	"github.com/quantora/signals-backend/internal/utils"
)

// The reset token bridges verify-forgot-otp and reset-password: the OTP
// record is consumed on verification, so the second call needs its own
// proof. Fifteen minutes is plenty to type a new password.
const resetTokenTTLMin = 15

type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// ForgotPassword starts the password reset flow by mailing a code.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Otp.Request(ctx, req.Email, otp.PurposeForgot); err != nil {
		return requestFailure(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset code sent"})
}

// VerifyForgotOtp checks the reset code and hands back a short-lived
// reset token for the final password change.
func (h *AuthHandler) VerifyForgotOtp(c echo.Context) error {
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

	res, err := h.Otp.Verify(ctx, req.Email, otp.PurposeForgot, req.Otp)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if res.Status != otp.StatusVerified {
		return otpFailure(c, res)
	}

	reset, err := utils.NewResetToken(h.Cfg.JWTSecret, req.Email, resetTokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue reset token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "code verified",
		"reset_token": reset.Token,
		"expires":     reset.Exp,
	})
}

// ResetPassword sets a new password for the account named by a valid
// reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.ResetToken) == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset_token/new_password required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	email, err := utils.ParseResetToken(h.Cfg.JWTSecret, strings.TrimSpace(req.ResetToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired reset token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePassword(ctx, email, hash); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
