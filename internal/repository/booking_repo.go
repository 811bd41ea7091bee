package repository

import (
	"context"
	"time"

	"github.com/clubdeck/booking-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error)
	FindByEventID(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error)
	FindActiveByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID string) (*models.Booking, error)
	FindExpiredPending(ctx context.Context, now time.Time) ([]models.Booking, error)
	FindExpiredPendingForTier(ctx context.Context, tx *gorm.DB, eventID, tierID string, now time.Time) ([]models.Booking, error)
	FirstWaitlisted(ctx context.Context, tx *gorm.DB, eventID, tierID string) (*models.Booking, error)
	CompleteConfirmed(ctx context.Context, tx *gorm.DB, eventID string) (int64, error)
	MarkCheckedIn(ctx context.Context, id string, at time.Time) (bool, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Save(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate locks the booking row. Callers must already hold the
// booking's tier lock; taking the locks in the other order can deadlock
// against the reservation path.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByEventID(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("seq ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindActiveByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID string) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("user_id = ? AND event_id = ? AND status NOT IN ?", userID, eventID,
			[]models.BookingStatus{models.StatusCancelled, models.StatusCompleted}).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindExpiredPending lists overdue holds across all events. The sweeper uses
// it to discover which (event, tier) pairs need an expiry pass; the actual
// expiry re-checks each booking under the tier lock.
func (r *bookingRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND hold_expires_at <= ?", models.StatusPending, now).
		Order("seq ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindExpiredPendingForTier(ctx context.Context, tx *gorm.DB, eventID, tierID string, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := tx.WithContext(ctx).
		Where("event_id = ? AND tier_id = ? AND status = ? AND hold_expires_at <= ?",
			eventID, tierID, models.StatusPending, now).
		Order("seq ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FirstWaitlisted returns the head of the FIFO waitlist for the tier.
func (r *bookingRepository) FirstWaitlisted(ctx context.Context, tx *gorm.DB, eventID, tierID string) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("event_id = ? AND tier_id = ? AND status = ?", eventID, tierID, models.StatusWaitlisted).
		Order("seq ASC").
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// MarkCheckedIn stamps checked_in_at only while the booking is still
// confirmed. The status guard in the WHERE clause decides any race with a
// concurrent cancellation or completion; it reports false when the row was
// no longer confirmed.
func (r *bookingRepository) MarkCheckedIn(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.StatusConfirmed).
		Update("checked_in_at", at)
	return res.RowsAffected > 0, res.Error
}

// CompleteConfirmed bulk-moves an event's confirmed bookings to completed.
// Already-completed rows are untouched, so re-running is harmless.
func (r *bookingRepository) CompleteConfirmed(ctx context.Context, tx *gorm.DB, eventID string) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("event_id = ? AND status = ?", eventID, models.StatusConfirmed).
		Update("status", models.StatusCompleted)
	return res.RowsAffected, res.Error
}
