package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quantora/signals-backend/internal/config"
	"github.com/quantora/signals-backend/internal/middleware"
	"github.com/quantora/signals-backend/internal/model"
	"github.com/quantora/signals-backend/internal/queue"
	"github.com/quantora/signals-backend/internal/repository"
	"github.com/quantora/signals-backend/internal/service"
	"github.com/quantora/signals-backend/internal/utils"
)

// AnalysisHandler manages chart analysis posts. Creating an active,
// unscheduled post announces it to the premium chat channel through the
// message broker; scheduled or inactive posts are stored silently.
type AnalysisHandler struct {
	Cfg      config.Config
	Analysis *repository.AnalysisRepo
	Log      *zap.Logger
}

func NewAnalysisHandler(cfg config.Config, analysis *repository.AnalysisRepo, log *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{Cfg: cfg, Analysis: analysis, Log: log}
}

// normalizeCategory maps case-insensitive input onto the stored values.
func normalizeCategory(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "crypto":
		return "Crypto", true
	case "forex":
		return "Forex", true
	}
	return "", false
}

// Create accepts a multipart form: category, symbol, description,
// optional status/visibility/scheduled_for and an optional chart image.
// Admin only.
func (h *AnalysisHandler) Create(c echo.Context) error {
	category, ok := normalizeCategory(c.FormValue("category"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category must be Crypto or Forex"})
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.FormValue("symbol")))
	description := strings.TrimSpace(c.FormValue("description"))
	if symbol == "" || description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "symbol/description required"})
	}

	status := c.FormValue("status")
	if status == "" {
		status = "active"
	}
	if status != "active" && status != "inactive" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	visibility := c.FormValue("visibility")
	if visibility == "" {
		visibility = "premium"
	}

	var scheduledFor *time.Time
	isScheduled := false
	if raw := c.FormValue("scheduled_for"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_for must be RFC3339"})
		}
		scheduledFor = &t
		isScheduled = true
	}

	var imageURL *string
	if fh, err := c.FormFile("graph_image"); err == nil && fh != nil {
		url, err := utils.SaveImageUpload(fh, h.Cfg.UploadDir, "analysis")
		if err != nil {
			if err == utils.ErrUnsupportedFileType {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported image type"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
		}
		imageURL = &url
	}

	authorID, _ := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Analysis.Insert(ctx, model.AnalysisPair{
		Category:      category,
		Symbol:        symbol,
		GraphImageURL: imageURL,
		Description:   description,
		IsScheduled:   isScheduled,
		ScheduledFor:  scheduledFor,
		Status:        status,
		Visibility:    visibility,
		AuthorID:      authorID,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create analysis failed"})
	}

	// Only live content is announced. A broker outage must not fail
	// the request, so publishing runs detached from it.
	if created.Status == "active" && !created.IsScheduled {
		ev := queue.AnalysisPublishedEvent{
			AnalysisID:  created.ID,
			Pair:        created.Symbol,
			Category:    created.Category,
			Title:       created.Description,
			PublishedAt: created.CreatedAt.UTC().Format(time.RFC3339),
		}
		if created.GraphImageURL != nil {
			ev.ImageURL = *created.GraphImageURL
		}
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pcancel()
			_ = service.PublishAnalysisPublished(pctx, h.Cfg.AMQPURL, h.Log, ev)
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "analysis created", "analysis": toAnalysisItem(created)})
}

type analysisItem struct {
	ID            uint64     `json:"id"`
	Category      string     `json:"category"`
	Symbol        string     `json:"symbol"`
	GraphImageURL *string    `json:"graph_image_url,omitempty"`
	Description   string     `json:"description"`
	IsScheduled   bool       `json:"is_scheduled"`
	ScheduledFor  *time.Time `json:"scheduled_for,omitempty"`
	Status        string     `json:"status"`
	Visibility    string     `json:"visibility"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toAnalysisItem(a model.AnalysisPair) analysisItem {
	return analysisItem{
		ID: a.ID, Category: a.Category, Symbol: a.Symbol, GraphImageURL: a.GraphImageURL,
		Description: a.Description, IsScheduled: a.IsScheduled, ScheduledFor: a.ScheduledFor,
		Status: a.Status, Visibility: a.Visibility, CreatedAt: a.CreatedAt,
	}
}

// ByCategory lists analysis posts for one category, newest first.
// Admin only.
func (h *AnalysisHandler) ByCategory(c echo.Context) error {
	category, ok := normalizeCategory(c.Param("category"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category must be Crypto or Forex"})
	}
	limit := queryInt(c, "limit", 20, 50)
	offset := queryInt(c, "offset", 0, 1<<30)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Analysis.ByCategory(ctx, category, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]analysisItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, toAnalysisItem(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"analysis": items})
}

// Top returns the latest posts for a category regardless of status.
// Public, served through the response cache.
func (h *AnalysisHandler) Top(c echo.Context) error {
	category, ok := normalizeCategory(c.Param("category"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category must be Crypto or Forex"})
	}
	limit := queryInt(c, "limit", 5, 20)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Analysis.TopByCategory(ctx, category, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]analysisItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, toAnalysisItem(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"analysis": items})
}
