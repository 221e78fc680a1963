package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/chat"
	"github.com/quantora/signals-backend/internal/middleware"
	"github.com/quantora/signals-backend/internal/model"
	"github.com/quantora/signals-backend/internal/repository"
)

// SignalHandler serves the trading signal feed and the admin signal
// composer.
type SignalHandler struct {
	Signals *repository.SignalRepo
}

func NewSignalHandler(signals *repository.SignalRepo) *SignalHandler {
	return &SignalHandler{Signals: signals}
}

type signalItem struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	AssetType   string     `json:"asset_type"`
	Symbol      string     `json:"symbol"`
	Visibility  string     `json:"visibility"`
	Status      string     `json:"status"`
	Metadata    *string    `json:"metadata,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toSignalItem(s model.Signal) signalItem {
	return signalItem{
		ID: s.ID, Title: s.Title, Body: s.Body, AssetType: s.AssetType, Symbol: s.Symbol,
		Visibility: s.Visibility, Status: s.Status, Metadata: s.Metadata,
		ScheduledAt: s.ScheduledAt, CreatedAt: s.CreatedAt,
	}
}

// List returns one page of active signals, newest first. The feed is
// for paying subscribers; admins can always see it.
func (h *SignalHandler) List(c echo.Context) error {
	role, _ := c.Get(middleware.CtxRole).(string)
	plan, _ := c.Get(middleware.CtxSubscriptionPlan).(string)
	if role != "admin" && chat.Admit(plan) != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "subscription required"})
	}

	limit := queryInt(c, "limit", 20, 50)
	offset := queryInt(c, "offset", 0, 1<<30)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Fetch one extra row to learn whether another page exists.
	rows, err := h.Signals.ActivePage(ctx, limit+1, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	items := make([]signalItem, 0, len(rows))
	for _, s := range rows {
		items = append(items, toSignalItem(s))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"signals":  items,
		"has_more": hasMore,
	})
}

type createSignalReq struct {
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	AssetType   string  `json:"asset_type"`
	Symbol      string  `json:"symbol"`
	Visibility  string  `json:"visibility"`
	Status      string  `json:"status"`
	Metadata    *string `json:"metadata"`
	ScheduledAt string  `json:"scheduled_at"`
}

var signalStatuses = map[string]bool{"active": true, "scheduled": true, "cancelled": true}
var signalVisibilities = map[string]bool{"public": true, "premium": true, "private": true}

// Create stores a new signal post. Admin only.
func (h *SignalHandler) Create(c echo.Context) error {
	var req createSignalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Title == "" || req.Body == "" || req.Symbol == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/body/symbol required"})
	}
	if req.Visibility == "" {
		req.Visibility = "premium"
	}
	if req.Status == "" {
		req.Status = "active"
	}
	if !signalStatuses[req.Status] || !signalVisibilities[req.Visibility] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status or visibility"})
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC3339"})
		}
		scheduledAt = &t
	}

	authorID, _ := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Signals.Insert(ctx, model.Signal{
		Title:       req.Title,
		Body:        req.Body,
		AssetType:   req.AssetType,
		Symbol:      req.Symbol,
		Visibility:  req.Visibility,
		Status:      req.Status,
		Metadata:    req.Metadata,
		ScheduledAt: scheduledAt,
		AuthorID:    authorID,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create signal failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "signal created", "signal_id": id})
}

// queryInt reads an integer query parameter with a default and cap.
func queryInt(c echo.Context, name string, def, max int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
