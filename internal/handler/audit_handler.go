package handler

import (
	"net/http"
	"strconv"

	"github.com/clubdeck/booking-platform/internal/repository"
	"github.com/labstack/echo/v4"
)

// AuditHandler exposes the audit trail to operators.
type AuditHandler struct {
	repo repository.AuditRepository
}

func NewAuditHandler(repo repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

func (h *AuditHandler) RegisterRoutes(e *echo.Echo, auth, manage echo.MiddlewareFunc) {
	e.GET("/api/v1/audit", h.List, auth, manage)
}

func (h *AuditHandler) List(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		if n > 200 {
			n = 200
		}
		limit = n
	}

	if actorID := c.QueryParam("actor_id"); actorID != "" {
		entries, err := h.repo.FindByActor(c.Request().Context(), actorID, limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, entries)
	}

	entries, err := h.repo.FindRecent(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}
