package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/repository"
)

// AdminSubscriptionHandler is the admin view over granted
// subscriptions: filtered listing plus manual edits. Admin only.
type AdminSubscriptionHandler struct {
	Subs *repository.SubscriptionRepo
}

func NewAdminSubscriptionHandler(subs *repository.SubscriptionRepo) *AdminSubscriptionHandler {
	return &AdminSubscriptionHandler{Subs: subs}
}

type adminSubscriptionItem struct {
	subscriptionItem
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// List returns one page of subscriptions joined with subscriber info,
// optionally filtered by email substring and plan type.
func (h *AdminSubscriptionHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 20, 100)
	page := queryInt(c, "page", 1, 1<<30)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	filter := repository.ListFilter{
		Email:    strings.TrimSpace(c.QueryParam("email")),
		PlanType: strings.TrimSpace(c.QueryParam("plan_type")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Subs.AdminList(ctx, filter, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	items := make([]adminSubscriptionItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, adminSubscriptionItem{
			subscriptionItem: subscriptionItem{
				ID: r.ID, UserID: r.UserID, PlanType: r.PlanType, Status: r.Status,
				StartDate: r.StartDate, EndDate: r.EndDate, CreatedAt: r.CreatedAt,
			},
			Email:    r.Email,
			FullName: r.FullName,
		})
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return c.JSON(http.StatusOK, echo.Map{
		"subscriptions": items,
		"total":         total,
		"page":          page,
		"pages":         pages,
	})
}

type updateSubscriptionReq struct {
	Status    *string `json:"status"`
	PlanType  *string `json:"plan_type"`
	StartDate *string `json:"start_date"` // RFC3339
	EndDate   *string `json:"end_date"`   // RFC3339
}

var subscriptionStatuses = map[string]bool{"active": true, "cancelled": true}

// Update applies manual edits to a subscription row and returns it.
func (h *AdminSubscriptionHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subscription id"})
	}
	var req updateSubscriptionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status == nil && req.PlanType == nil && req.StartDate == nil && req.EndDate == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	fields := repository.UpdateFields{Status: req.Status, PlanType: req.PlanType}
	if req.Status != nil && !subscriptionStatuses[*req.Status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active or cancelled"})
	}
	if req.StartDate != nil {
		t, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be RFC3339"})
		}
		fields.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be RFC3339"})
		}
		fields.EndDate = &t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sub, err := h.Subs.Update(ctx, id, fields)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscription not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"subscription": subscriptionItem{
		ID: sub.ID, UserID: sub.UserID, PlanType: sub.PlanType, Status: sub.Status,
		StartDate: sub.StartDate, EndDate: sub.EndDate, CreatedAt: sub.CreatedAt,
	}})
}
