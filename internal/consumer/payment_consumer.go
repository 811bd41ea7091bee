package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// paymentResultMessage is the payload the payment service publishes once
// the gateway settles a charge.
type paymentResultMessage struct {
	BookingID         string  `json:"booking_id"`
	Provider          string  `json:"provider"`
	ProviderPaymentID string  `json:"provider_payment_id"`
	Status            string  `json:"status"` // "succeeded" | "failed"
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	ErrorMessage      string  `json:"error_message,omitempty"`
}

type PaymentConsumer struct {
	ledger service.BookingLedger
	log    *logrus.Entry
}

func NewPaymentConsumer(ledger service.BookingLedger) *PaymentConsumer {
	return &PaymentConsumer{
		ledger: ledger,
		log:    logrus.WithField("component", "payment-consumer"),
	}
}

// Start drains payment results and drives the corresponding booking
// transitions.
func (pc *PaymentConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			pc.handleMessage(msg)
		}
		pc.log.Info("channel closed, stopping consumer")
	}()
}

func (pc *PaymentConsumer) handleMessage(msg amqp.Delivery) {
	var result paymentResultMessage
	if err := json.Unmarshal(msg.Body, &result); err != nil {
		pc.log.WithError(err).Warn("failed to unmarshal payment result")
		msg.Nack(false, false)
		return
	}
	if result.BookingID == "" || result.ProviderPaymentID == "" {
		pc.log.Warn("payment result missing booking or payment id")
		msg.Ack(false)
		return
	}

	_, err := pc.ledger.ConfirmPayment(context.Background(), result.BookingID, service.PaymentResult{
		Succeeded:         result.Status == "succeeded",
		Provider:          models.PaymentProvider(result.Provider),
		ProviderPaymentID: result.ProviderPaymentID,
		Amount:            result.Amount,
		Currency:          result.Currency,
		ErrorMessage:      result.ErrorMessage,
	})
	if err != nil {
		// Outcomes that can never succeed on retry are acked and dropped;
		// the audit trail keeps the record.
		switch {
		case errors.Is(err, service.ErrBookingNotFound),
			errors.Is(err, service.ErrInvalidTransition),
			errors.Is(err, service.ErrAlreadyTerminal),
			errors.Is(err, service.ErrHoldExpired):
			pc.log.WithError(err).WithField("booking_id", result.BookingID).
				Warn("dropping unprocessable payment result")
			msg.Ack(false)
		default:
			pc.log.WithError(err).WithField("booking_id", result.BookingID).
				Error("failed to apply payment result, requeueing")
			msg.Nack(false, true)
		}
		return
	}

	pc.log.WithFields(logrus.Fields{
		"booking_id": result.BookingID,
		"status":     result.Status,
	}).Info("applied payment result")
	msg.Ack(false)
}
