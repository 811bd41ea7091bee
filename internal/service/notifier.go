package service

import (
	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/pkg/rabbitmq"
	"github.com/sirupsen/logrus"
)

// bookingMessage is the payload published for booking notifications.
// Delivery (email/push/SMS) is handled by whoever consumes the queue.
type bookingMessage struct {
	BookingID string               `json:"booking_id"`
	EventID   string               `json:"event_id"`
	TierID    string               `json:"tier_id"`
	UserID    string               `json:"user_id"`
	Seats     int                  `json:"seats"`
	Status    models.BookingStatus `json:"status"`
}

type queueNotifier struct {
	publisher *rabbitmq.Publisher
	log       *logrus.Entry
}

// NewQueueNotifier returns a Notifier that publishes booking.* messages.
// A nil publisher disables publishing (tests, local runs without a broker).
func NewQueueNotifier(publisher *rabbitmq.Publisher) Notifier {
	return &queueNotifier{
		publisher: publisher,
		log:       logrus.WithField("component", "notifier"),
	}
}

func (n *queueNotifier) BookingConfirmed(b *models.Booking) {
	n.publish("booking.confirmed", b)
}

func (n *queueNotifier) BookingCancelled(b *models.Booking) {
	n.publish("booking.cancelled", b)
}

func (n *queueNotifier) WaitlistPromoted(b *models.Booking) {
	n.publish("booking.promoted", b)
}

func (n *queueNotifier) publish(routingKey string, b *models.Booking) {
	if n.publisher == nil {
		return
	}
	msg := bookingMessage{
		BookingID: b.ID,
		EventID:   b.EventID,
		TierID:    b.TierID,
		UserID:    b.UserID,
		Seats:     b.Seats,
		Status:    b.Status,
	}
	if err := n.publisher.Publish(routingKey, msg); err != nil {
		n.log.WithError(err).WithField("routing_key", routingKey).
			Warn("notification publish failed")
	}
}
