package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quantora/signals-backend/internal/model"
	"github.com/quantora/signals-backend/internal/repository"
)

// AdminPartnerHandler is the referral partner CRUD. Admin only.
type AdminPartnerHandler struct {
	Partners *repository.PartnerRepo
}

func NewAdminPartnerHandler(partners *repository.PartnerRepo) *AdminPartnerHandler {
	return &AdminPartnerHandler{Partners: partners}
}

type partnerReq struct {
	PartnerName string `json:"partner_name"`
	PartnerCode string `json:"partner_code"`
	PartnerLink string `json:"partner_link"`
}

type partnerItem struct {
	ID          uint64    `json:"id"`
	PartnerName string    `json:"partner_name"`
	PartnerCode string    `json:"partner_code"`
	PartnerLink string    `json:"partner_link"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPartnerItem(p model.Partner) partnerItem {
	return partnerItem{
		ID: p.ID, PartnerName: p.PartnerName, PartnerCode: p.PartnerCode,
		PartnerLink: p.PartnerLink, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func partnerID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Create registers a partner. The referral code must be unique.
func (h *AdminPartnerHandler) Create(c echo.Context) error {
	var req partnerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.PartnerName = strings.TrimSpace(req.PartnerName)
	req.PartnerCode = strings.TrimSpace(req.PartnerCode)
	if req.PartnerName == "" || req.PartnerCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "partner_name/partner_code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Partners.Create(ctx, req.PartnerName, req.PartnerCode, req.PartnerLink)
	if err != nil {
		if err == repository.ErrPartnerCodeExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "partner code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create partner failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"partner": toPartnerItem(p)})
}

// List returns every partner.
func (h *AdminPartnerHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Partners.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]partnerItem, 0, len(rows))
	for _, p := range rows {
		items = append(items, toPartnerItem(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"partners": items})
}

// Get returns one partner by id.
func (h *AdminPartnerHandler) Get(c echo.Context) error {
	id, ok := partnerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid partner id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Partners.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "partner not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"partner": toPartnerItem(p)})
}

// Update edits a partner. Empty fields keep their current value.
func (h *AdminPartnerHandler) Update(c echo.Context) error {
	id, ok := partnerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid partner id"})
	}
	var req partnerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Partners.Update(ctx, id, strings.TrimSpace(req.PartnerName),
		strings.TrimSpace(req.PartnerCode), req.PartnerLink)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "partner not found"})
		case repository.ErrPartnerCodeExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "partner code already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update partner failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"partner": toPartnerItem(p)})
}

// Delete removes a partner. Users referred by it keep their accounts.
func (h *AdminPartnerHandler) Delete(c echo.Context) error {
	id, ok := partnerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid partner id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Partners.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "partner not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete partner failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "partner deleted"})
}
