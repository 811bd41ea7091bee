package dto

import (
	"time"

	"github.com/clubdeck/booking-platform/internal/models"
)

type BookingResponse struct {
	ID                 string               `json:"id"`
	UserID             string               `json:"user_id"`
	EventID            string               `json:"event_id"`
	TierID             string               `json:"tier_id"`
	Seats              int                  `json:"seats"`
	Status             models.BookingStatus `json:"status"`
	Amount             float64              `json:"amount"`
	Currency           string               `json:"currency"`
	HoldExpiresAt      *time.Time           `json:"hold_expires_at,omitempty"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	CheckedInAt        *time.Time           `json:"checked_in_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

type TierResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Capacity    int     `json:"capacity"`
	BookedSeats int     `json:"booked_seats"`
}

type EventResponse struct {
	ID             string             `json:"id"`
	ClubID         string             `json:"club_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Venue          string             `json:"venue,omitempty"`
	Status         models.EventStatus `json:"status"`
	StartTime      time.Time          `json:"start_time"`
	EndTime        time.Time          `json:"end_time"`
	Capacity       int                `json:"capacity"`
	BookedSeats    int                `json:"booked_seats"`
	BookingOpen    bool               `json:"booking_open"`
	EnableWaitlist bool               `json:"enable_waitlist"`
	Tiers          []TierResponse     `json:"tiers,omitempty"`
}

type CompleteEventResponse struct {
	EventID           string `json:"event_id"`
	CompletedBookings int64  `json:"completed_bookings"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		EventID:            b.EventID,
		TierID:             b.TierID,
		Seats:              b.Seats,
		Status:             b.Status,
		Amount:             b.Amount,
		Currency:           b.Currency,
		HoldExpiresAt:      b.HoldExpiresAt,
		CancellationReason: b.CancellationReason,
		CheckedInAt:        b.CheckedInAt,
		CreatedAt:          b.CreatedAt,
	}
}

func ToEventResponse(e *models.Event) EventResponse {
	resp := EventResponse{
		ID:             e.ID,
		ClubID:         e.ClubID,
		Title:          e.Title,
		Description:    e.Description,
		Venue:          e.Venue,
		Status:         e.Status,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		Capacity:       e.Capacity,
		BookedSeats:    e.BookedSeats,
		BookingOpen:    e.BookingOpen,
		EnableWaitlist: e.EnableWaitlist,
	}
	for _, tier := range e.Tiers {
		resp.Tiers = append(resp.Tiers, TierResponse{
			ID:          tier.ID,
			Name:        tier.Name,
			Price:       tier.Price,
			Currency:    tier.Currency,
			Capacity:    tier.Capacity,
			BookedSeats: tier.BookedSeats,
		})
	}
	return resp
}
