package handler

import (
	"errors"
	"net/http"

	"github.com/clubdeck/booking-platform/internal/dto"
	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/internal/repository"
	"github.com/clubdeck/booking-platform/internal/service"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// PaymentHandler receives gateway outcomes over the synchronous webhook
// path. The same transitions also arrive via the payment.result queue; both
// funnel into the ledger, which rejects whichever copy comes second.
type PaymentHandler struct {
	ledger   service.BookingLedger
	payments repository.PaymentRepository
}

func NewPaymentHandler(ledger service.BookingLedger, payments repository.PaymentRepository) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, payments: payments}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, auth, webhookAuth echo.MiddlewareFunc) {
	e.POST("/api/v1/payments/webhook", h.Webhook, webhookAuth)
	e.GET("/api/v1/bookings/:id/payment", h.GetByBooking, auth)
}

// GetByBooking returns the recorded gateway outcome for a booking.
func (h *PaymentHandler) GetByBooking(c echo.Context) error {
	payment, err := h.payments.FindByBookingID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no payment recorded for this booking")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) Webhook(c echo.Context) error {
	var req dto.PaymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.BookingID == "" || req.ProviderPaymentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking_id and provider_payment_id are required")
	}
	if req.Status != "succeeded" && req.Status != "failed" {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be succeeded or failed")
	}

	booking, err := h.ledger.ConfirmPayment(c.Request().Context(), req.BookingID, service.PaymentResult{
		Succeeded:         req.Status == "succeeded",
		Provider:          models.PaymentProvider(req.Provider),
		ProviderPaymentID: req.ProviderPaymentID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		ErrorMessage:      req.ErrorMessage,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrHoldExpired),
			errors.Is(err, service.ErrInvalidTransition),
			errors.Is(err, service.ErrAlreadyTerminal):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
