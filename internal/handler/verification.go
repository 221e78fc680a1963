package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/config"
	"github.com/quantora/signals-backend/internal/middleware"
	"github.com/quantora/signals-backend/internal/repository"
	"github.com/quantora/signals-backend/internal/subscription"
	"github.com/quantora/signals-backend/internal/utils"
)

// VerificationHandler covers the payment proof flow: subscribers upload
// a screenshot, admins review it and a subscription is granted on
// approval.
type VerificationHandler struct {
	Cfg    config.Config
	Verifs *repository.VerificationRepo
	Svc    *subscription.Service
}

func NewVerificationHandler(cfg config.Config, verifs *repository.VerificationRepo, svc *subscription.Service) *VerificationHandler {
	return &VerificationHandler{Cfg: cfg, Verifs: verifs, Svc: svc}
}

// Submit uploads a payment screenshot for review. A user can have only
// one pending proof at a time; a second submission is refused with 409.
func (h *VerificationHandler) Submit(c echo.Context) error {
	userID, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok || userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	fh, err := c.FormFile("screenshot")
	if err != nil || fh == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "screenshot file required"})
	}
	url, err := utils.SaveImageUpload(fh, h.Cfg.UploadDir, "verifications")
	if err != nil {
		if err == utils.ErrUnsupportedFileType {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported image type"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store screenshot failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Verifs.Insert(ctx, userID, url)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a verification is already pending review"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit verification failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":         "verification submitted",
		"verification_id": v.ID,
		"status":          v.ReviewStatus,
	})
}

type verificationItem struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	ScreenshotURL string    `json:"screenshot_url"`
	ReviewStatus  string    `json:"review_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Pending lists proofs awaiting review, oldest first. Admin only.
func (h *VerificationHandler) Pending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Verifs.PendingList(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]verificationItem, 0, len(rows))
	for _, v := range rows {
		items = append(items, verificationItem{
			ID: v.ID, UserID: v.UserID, ScreenshotURL: v.ScreenshotURL,
			ReviewStatus: v.ReviewStatus, CreatedAt: v.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"verifications": items})
}

type reviewReq struct {
	Action   string `json:"action"`    // "approved" or "rejected"
	PlanType string `json:"plan_type"` // requested plan on approval
}

// Review decides a pending proof. Approval inserts the granted
// subscription in the same transaction as the status change. Admin
// only.
func (h *VerificationHandler) Review(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification id"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sub, err := h.Svc.ReviewVerification(ctx, id, req.Action, req.PlanType)
	if err != nil {
		switch err {
		case subscription.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "verification not found or already reviewed"})
		case subscription.ErrInvalidAction:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be approved or rejected"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "review failed"})
		}
	}

	resp := echo.Map{"message": "verification " + req.Action}
	if sub != nil {
		resp["subscription"] = subscriptionItem{
			ID: sub.ID, UserID: sub.UserID, PlanType: sub.PlanType, Status: sub.Status,
			StartDate: sub.StartDate, EndDate: sub.EndDate, CreatedAt: sub.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// subscriptionItem is the JSON projection of a subscription row, shared
// by the verification and admin subscription endpoints.
type subscriptionItem struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"user_id"`
	PlanType  string     `json:"plan_type"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
}
