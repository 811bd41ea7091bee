package repository

import (
	"context"

	"github.com/clubdeck/booking-platform/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	FindByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "booking_id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}
