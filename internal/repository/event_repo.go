package repository

import (
	"context"

	"github.com/clubdeck/booking-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	Save(ctx context.Context, tx *gorm.DB, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error)
	FindByClub(ctx context.Context, clubID string) ([]models.Event, error)
	FindTierForUpdate(ctx context.Context, tx *gorm.DB, eventID, tierID string) (*models.PriceTier, error)
	AddBookedSeats(ctx context.Context, tx *gorm.DB, eventID, tierID string, delta int) error
	GetDB() *gorm.DB
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) Save(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	return tx.WithContext(ctx).Save(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&event, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	if err := tx.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate acquires a row-level lock on the event within the given
// transaction. Used by event-level operations (capacity resize, completion)
// that must not interleave with tier-level bookings.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByClub(ctx context.Context, clubID string) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("club_id = ?", clubID).
		Order("start_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// FindTierForUpdate locks the tier row, serializing all capacity-affecting
// operations on the (event, tier) pair. Every reservation and release goes
// through this lock; callers must take it before touching any booking row.
func (r *eventRepository) FindTierForUpdate(ctx context.Context, tx *gorm.DB, eventID, tierID string) (*models.PriceTier, error) {
	var tier models.PriceTier
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND event_id = ?", tierID, eventID).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// AddBookedSeats moves the tier counter and the event aggregate together so
// the two can never drift. Negative delta releases seats.
func (r *eventRepository) AddBookedSeats(ctx context.Context, tx *gorm.DB, eventID, tierID string, delta int) error {
	err := tx.WithContext(ctx).
		Model(&models.PriceTier{}).
		Where("id = ?", tierID).
		UpdateColumn("booked_seats", gorm.Expr("booked_seats + ?", delta)).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("booked_seats", gorm.Expr("booked_seats + ?", delta)).Error
}
