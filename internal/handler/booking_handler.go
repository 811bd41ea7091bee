package handler

import (
	"errors"
	"net/http"

	"github.com/clubdeck/booking-platform/internal/dto"
	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	ledger service.BookingLedger
}

func NewBookingHandler(ledger service.BookingLedger) *BookingHandler {
	return &BookingHandler{ledger: ledger}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	events := e.Group("/api/v1/events", auth)
	events.POST("/:id/bookings", h.RequestBooking)
	events.GET("/:id/bookings", h.ListBookings)

	bookings := e.Group("/api/v1/bookings", auth)
	bookings.GET("/:id", h.GetBooking)
	bookings.DELETE("/:id", h.CancelBooking)
	bookings.POST("/:id/checkin", h.CheckIn)
}

func actorFromContext(c echo.Context) service.Actor {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	return service.Actor{ID: userID, Role: role}
}

func (h *BookingHandler) RequestBooking(c echo.Context) error {
	eventID := c.Param("id")

	var req dto.RequestBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TierID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tier_id is required")
	}

	actor := actorFromContext(c)
	if actor.ID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	booking, err := h.ledger.RequestBooking(c.Request().Context(), eventID, req.TierID, actor.ID, req.Seats)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound), errors.Is(err, service.ErrTierNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidSeatCount), errors.Is(err, service.ErrBookingClosed):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyBooked), errors.Is(err, service.ErrCapacityExceeded):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	var req dto.CancelBookingRequest
	_ = c.Bind(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by user"
	}

	booking, err := h.ledger.CancelBooking(c.Request().Context(), c.Param("id"), req.Reason, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyTerminal), errors.Is(err, service.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.ledger.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}

	bookings, err := h.ledger.ListBookings(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) CheckIn(c echo.Context) error {
	booking, err := h.ledger.CheckIn(c.Request().Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyTerminal),
			errors.Is(err, service.ErrInvalidTransition),
			errors.Is(err, service.ErrOutsideEventWindow):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
