package models

import "time"

type PaymentProvider string

const (
	ProviderRazorpay PaymentProvider = "razorpay"
	ProviderStripe   PaymentProvider = "stripe"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentSucceeded         PaymentStatus = "succeeded"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Payment records the outcome the gateway reported for a booking. The
// ledger writes these; it never computes payment state itself.
type Payment struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID         string          `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	Provider          PaymentProvider `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderPaymentID string          `gorm:"not null" json:"provider_payment_id"`
	Amount            float64         `gorm:"not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	ErrorMessage      string          `gorm:"type:text" json:"error_message,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
