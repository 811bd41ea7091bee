package dto

import "time"

type CreateTierRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Capacity int     `json:"capacity"`
}

type CreateEventRequest struct {
	ClubID         string              `json:"club_id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Venue          string              `json:"venue"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        time.Time           `json:"end_time"`
	Capacity       int                 `json:"capacity"`
	EnableWaitlist bool                `json:"enable_waitlist"`
	Tiers          []CreateTierRequest `json:"tiers"`
}

type ResizeCapacityRequest struct {
	Capacity int `json:"capacity"`
}

type RequestBookingRequest struct {
	TierID string `json:"tier_id"`
	Seats  int    `json:"seats"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type PaymentWebhookRequest struct {
	BookingID         string  `json:"booking_id"`
	Provider          string  `json:"provider"`
	ProviderPaymentID string  `json:"provider_payment_id"`
	Status            string  `json:"status"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	ErrorMessage      string  `json:"error_message"`
}
