package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/config"
	"github.com/quantora/signals-backend/internal/repository"
	"github.com/quantora/signals-backend/internal/subscription"
	"github.com/quantora/signals-backend/internal/utils"
)

// AdminUserHandler serves the admin user dashboard: recent signups,
// paginated listing and manual account creation.
type AdminUserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Svc   *subscription.Service
}

func NewAdminUserHandler(cfg config.Config, users *repository.UserRepo, svc *subscription.Service) *AdminUserHandler {
	return &AdminUserHandler{Cfg: cfg, Users: users, Svc: svc}
}

// Recent returns the newest accounts.
func (h *AdminUserHandler) Recent(c echo.Context) error {
	limit := queryInt(c, "limit", 5, 50)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.Recent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// List returns one page of accounts with pagination totals.
func (h *AdminUserHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 20, 100)
	page := queryInt(c, "page", 1, 1<<30)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.Page(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	total, err := h.Users.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users": users,
		"total": total,
		"page":  page,
		"pages": pages,
	})
}

type adminCreateUserReq struct {
	FullName  string  `json:"full_name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	PlanType  string  `json:"plan_type"`
	PartnerID *uint64 `json:"partner_id"`
	Lifetime  bool    `json:"lifetime"`
}

// Create adds an account directly, optionally granting a subscription
// in the same transaction. Accounts created here skip OTP verification.
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req adminCreateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name/email/password required"})
	}
	role := req.Role
	if role == "" {
		role = "user"
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

	roleID, err := h.Users.RoleID(ctx, role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	uid, sub, err := h.Svc.AdminCreateUser(ctx, req.FullName, req.Email, hash, roleID, req.PartnerID, req.PlanType, req.Lifetime)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	resp := echo.Map{"message": "user created", "user_id": uid}
	if sub != nil {
		resp["subscription"] = subscriptionItem{
			ID: sub.ID, UserID: sub.UserID, PlanType: sub.PlanType, Status: sub.Status,
			StartDate: sub.StartDate, EndDate: sub.EndDate, CreatedAt: sub.CreatedAt,
		}
	}
	return c.JSON(http.StatusCreated, resp)
}
