package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/repository"
)

// ContentHandler serves announcements and published trade results: the
// read side is public and cached, the write side is admin only.
type ContentHandler struct {
	Announcements *repository.AnnouncementRepo
	Results       *repository.ResultRepo
}

func NewContentHandler(a *repository.AnnouncementRepo, r *repository.ResultRepo) *ContentHandler {
	return &ContentHandler{Announcements: a, Results: r}
}

type createAnnouncementReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	IsActive    *bool  `json:"is_active"`
}

// CreateAnnouncement stores a site-wide notice. Admin only.
func (h *ContentHandler) CreateAnnouncement(c echo.Context) error {
	var req createAnnouncementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Announcements.Insert(ctx, req.Title, req.Description, req.Link, active); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create announcement failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "announcement created"})
}

// ListAnnouncements returns one page of active announcements plus the
// total count. Public.
func (h *ContentHandler) ListAnnouncements(c echo.Context) error {
	limit := queryInt(c, "limit", 10, 50)
	offset := queryInt(c, "offset", 0, 1<<30)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Announcements.ActivePage(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]announcementItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, announcementItem{
			ID: a.ID, Title: a.Title, Description: a.Description, Link: a.Link, CreatedAt: a.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"announcements": items, "total": total})
}

type announcementItem struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}

type resultItem struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	TP        string    `json:"tp"`
	SL        string    `json:"sl"`
	TotalWins int       `json:"total_wins"`
	CreatedAt time.Time `json:"created_at"`
}

type createResultReq struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	TP        string `json:"tp"`
	SL        string `json:"sl"`
	TotalWins int    `json:"total_wins"`
}

// CreateResult stores a track-record entry. Admin only.
func (h *ContentHandler) CreateResult(c echo.Context) error {
	var req createResultReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	category, ok := normalizeCategory(req.Category)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category must be Crypto or Forex"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Results.Insert(ctx, req.Name, category, req.TP, req.SL, req.TotalWins); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create result failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "result created"})
}

// ListResults returns one page of results, newest first. Public.
func (h *ContentHandler) ListResults(c echo.Context) error {
	limit := queryInt(c, "limit", 20, 50)
	offset := queryInt(c, "offset", 0, 1<<30)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Results.Page(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]resultItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, resultItem{
			ID: r.ID, Name: r.Name, Category: r.Category, TP: r.TP, SL: r.SL,
			TotalWins: r.TotalWins, CreatedAt: r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"results": items})
}
