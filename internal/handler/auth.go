package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quantora/signals-backend/internal/config"
	"github.com/quantora/signals-backend/internal/model"
	"github.com/quantora/signals-backend/internal/otp"
	"github.com/quantora/signals-backend/internal/repository"
	"github.com/quantora/signals-backend/internal/subscription"
	"github.com/quantora/signals-backend/internal/utils"
)

// subscriptionSource is the slice of the subscription repository the
// auth endpoints consult when building token claims; narrowed to an
// interface so tests can fake it.
type subscriptionSource interface {
	LatestForUser(ctx context.Context, userID uint64) (model.Subscription, error)
}

// AuthHandler bundles dependencies for the registration, login, OTP and
// password-reset endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Subs     subscriptionSource
	Partners *repository.PartnerRepo
	Otp      *otp.Engine
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, subs *repository.SubscriptionRepo,
	partners *repository.PartnerRepo, engine *otp.Engine, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Subs: subs, Partners: partners, Otp: engine, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PartnerCode string `json:"partner_code"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID               uint64 `json:"id"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	SubscriptionPlan string `json:"subscription_plan"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// subscriptionClaims resolves the plan/status snapshot baked into the
// access token. Users without a subscription row are on the free plan;
// an active plan whose end date has passed reads as expired. Any other
// store failure is propagated, never downgraded to free.
func (h *AuthHandler) subscriptionClaims(ctx context.Context, userID uint64) (plan, status string, err error) {
	sub, err := h.Subs.LatestForUser(ctx, userID)
	if err == sql.ErrNoRows {
		return subscription.PlanFree, "inactive", nil
	}
	if err != nil {
		return "", "", err
	}
	status = sub.Status
	if sub.Status == "active" && sub.EndDate != nil && sub.EndDate.Before(time.Now().UTC()) {
		status = "expired"
	}
	return sub.PlanType, status, nil
}

// issuePair builds the access/refresh pair plus the user snapshot
// returned by login, verify-otp and refresh.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (authResp, error) {
	plan, status, err := h.subscriptionClaims(ctx, u.ID)
	if err != nil {
		return authResp{}, err
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.AccessClaims{
		UserID:             u.ID,
		Email:              u.Email,
		Role:               u.RoleName,
		SubscriptionPlan:   plan,
		SubscriptionStatus: status,
	}, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}

	return authResp{
		User:    userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.RoleName, SubscriptionPlan: plan},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Token, Expires: refresh.Exp},
	}, nil
}

// Register creates an unverified account and mails the first OTP. The
// account stays locked out of login until verify-otp succeeds.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name/email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Users.EmailExists(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}

	// A referral code links the account to the partner; approval of a
	// payment proof later upgrades such accounts to lifetime_free.
	var partnerID *uint64
	if code := strings.TrimSpace(req.PartnerCode); code != "" {
		p, err := h.Partners.GetByCode(ctx, code)
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid partner code"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		partnerID = &p.ID
	}

	roleID, err := h.Users.RoleID(ctx, "user")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	uid, err := h.Users.Create(ctx, req.FullName, req.Email, hash, roleID, partnerID)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	if err := h.Otp.Request(ctx, req.Email, otp.PurposeRegister); err != nil {
		// The account exists; the client can retry via resend-otp.
		h.Log.Warn("register otp dispatch failed", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusCreated, echo.Map{
			"message": "account created, otp delivery failed; use resend-otp",
			"user_id": uid,
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "account created, verification code sent",
		"user_id": uid,
	})
}

// Login verifies credentials and returns a token pair. Unverified
// accounts are refused until they pass OTP verification.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsVerified {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		h.Log.Warn("touch last login failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a valid refresh token for a fresh pair. The new
// access token carries the user's current subscription snapshot, so a
// plan change takes effect at the next refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	claims, err := utils.ParseRefreshToken(h.Cfg.JWTSecret, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}
