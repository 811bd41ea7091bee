package models

import "time"

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusWaitlisted BookingStatus = "waitlisted"
	StatusCancelled  BookingStatus = "cancelled"
	StatusCompleted  BookingStatus = "completed"
)

// Terminal reports whether no further transition may leave the status.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// transitions is the booking state machine:
//
//	pending    -> confirmed | cancelled
//	confirmed  -> cancelled | completed
//	waitlisted -> pending (promotion) | cancelled
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCancelled, StatusCompleted},
	StatusWaitlisted: {StatusPending, StatusCancelled},
}

// CanTransition reports whether moving from one booking status to another
// is a legal step of the state machine.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// Seq is assigned by the database in insertion order and is the FIFO
	// tiebreaker for waitlist promotion.
	Seq int64 `gorm:"autoIncrement;uniqueIndex" json:"-"`

	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	EventID string `gorm:"type:uuid;not null;index" json:"event_id"`
	TierID  string `gorm:"type:uuid;not null;index" json:"tier_id"`

	Seats    int           `gorm:"not null" json:"seats"`
	Status   BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Amount   float64       `gorm:"not null" json:"amount"`
	Currency string        `gorm:"type:varchar(3);not null" json:"currency"`

	// HoldExpiresAt is set while the booking is pending; the seats are
	// released once it passes without a payment confirmation.
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Event *Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Tier  *PriceTier `gorm:"foreignKey:TierID" json:"tier,omitempty"`
}

// HoldExpired reports whether a pending booking's hold has lapsed at the
// given instant.
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == StatusPending && b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt)
}
