package models

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

type Event struct {
	ID          string      `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID      string      `gorm:"type:uuid;not null;index" json:"club_id"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Venue       string      `json:"venue,omitempty"`
	Status      EventStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`

	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	// Capacity is the venue total; the tiers collectively may not exceed
	// it. BookedSeats aggregates the tiers' counters and always equals the
	// seat sum of the event's non-cancelled, non-waitlisted bookings.
	Capacity    int `gorm:"not null" json:"capacity"`
	BookedSeats int `gorm:"not null;default:0" json:"booked_seats"`

	BookingOpen    bool `gorm:"not null;default:false" json:"booking_open"`
	EnableWaitlist bool `gorm:"not null;default:false" json:"enable_waitlist"`

	Tiers []PriceTier `gorm:"foreignKey:EventID" json:"tiers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Club *Club `gorm:"foreignKey:ClubID" json:"club,omitempty"`
}

// PriceTier is a priced sub-allocation of an event's capacity. Its
// booked_seats counter is only ever touched while the tier row is locked;
// the row is the serialization point for all capacity accounting on the
// (event, tier) pair.
type PriceTier struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     string    `gorm:"type:uuid;not null;index" json:"event_id"`
	Name        string    `gorm:"not null" json:"name"`
	Price       float64   `gorm:"not null" json:"price"`
	Currency    string    `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	BookedSeats int       `gorm:"not null;default:0" json:"booked_seats"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Remaining returns the tier's unreserved seat count.
func (t *PriceTier) Remaining() int {
	return t.Capacity - t.BookedSeats
}
