package handler

import (
	"errors"
	"net/http"

	"github.com/clubdeck/booking-platform/internal/dto"
	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/internal/service"
	"github.com/labstack/echo/v4"
)

type EventHandler struct {
	svc    service.EventService
	ledger service.BookingLedger
}

func NewEventHandler(svc service.EventService, ledger service.BookingLedger) *EventHandler {
	return &EventHandler{svc: svc, ledger: ledger}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo, auth, manage echo.MiddlewareFunc) {
	// Availability is a public read; everything else needs a token, and
	// mutations need the owner/admin role.
	e.GET("/api/v1/events/:id/availability", h.Availability)

	events := e.Group("/api/v1/events", auth)
	events.GET("/:id", h.GetEvent)

	managed := e.Group("/api/v1/events", auth, manage)
	managed.POST("", h.CreateEvent)
	managed.POST("/:id/publish", h.PublishEvent)
	managed.PATCH("/:id/booking-open", h.SetBookingOpen)
	managed.PUT("/:id/capacity", h.ResizeCapacity)
	managed.POST("/:id/complete", h.CompleteEvent)

	e.GET("/api/v1/clubs/:id/events", h.ListClubEvents, auth)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ClubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	event := &models.Event{
		ClubID:         req.ClubID,
		Title:          req.Title,
		Description:    req.Description,
		Venue:          req.Venue,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Capacity:       req.Capacity,
		EnableWaitlist: req.EnableWaitlist,
	}
	for _, tier := range req.Tiers {
		event.Tiers = append(event.Tiers, models.PriceTier{
			Name:     tier.Name,
			Price:    tier.Price,
			Currency: tier.Currency,
			Capacity: tier.Capacity,
		})
	}

	if err := h.svc.CreateEvent(c.Request().Context(), event, actorFromContext(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEvent):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClubNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClubDisabled):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	event, err := h.svc.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) ListClubEvents(c echo.Context) error {
	events, err := h.svc.ListByClub(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.EventResponse, len(events))
	for i, e := range events {
		resp[i] = dto.ToEventResponse(&e)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *EventHandler) PublishEvent(c echo.Context) error {
	event, err := h.svc.PublishEvent(c.Request().Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEventNotDraft):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) SetBookingOpen(c echo.Context) error {
	var req struct {
		Open bool `json:"open"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	event, err := h.svc.SetBookingOpen(c.Request().Context(), c.Param("id"), req.Open, actorFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) ResizeCapacity(c echo.Context) error {
	var req dto.ResizeCapacityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	event, err := h.svc.ResizeCapacity(c.Request().Context(), c.Param("id"), req.Capacity, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidEvent):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCapacityBelowBooked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) CompleteEvent(c echo.Context) error {
	eventID := c.Param("id")
	count, err := h.ledger.CompleteEvent(c.Request().Context(), eventID, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEventNotEnded):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.CompleteEventResponse{
		EventID:           eventID,
		CompletedBookings: count,
	})
}

func (h *EventHandler) Availability(c echo.Context) error {
	snapshot, err := h.svc.Availability(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, snapshot)
}
