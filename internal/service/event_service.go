package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/internal/repository"
	"github.com/clubdeck/booking-platform/pkg/cache"
	"github.com/clubdeck/booking-platform/pkg/rabbitmq"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrClubNotFound        = errors.New("club not found")
	ErrClubDisabled        = errors.New("club is disabled")
	ErrInvalidEvent        = errors.New("invalid event")
	ErrEventNotDraft       = errors.New("event is not in draft status")
	ErrCapacityBelowBooked = errors.New("capacity cannot be resized below booked seats")
)

// TierAvailability is the per-tier slice of an availability snapshot.
type TierAvailability struct {
	TierID    string  `json:"tier_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Capacity  int     `json:"capacity"`
	Booked    int     `json:"booked"`
	Remaining int     `json:"remaining"`
}

// EventAvailability is the read-only snapshot served to dashboards and
// availability queries. It never feeds a reservation decision; those read
// the counters under the tier lock.
type EventAvailability struct {
	EventID     string             `json:"event_id"`
	Title       string             `json:"title"`
	Capacity    int                `json:"capacity"`
	BookedSeats int                `json:"booked_seats"`
	BookingOpen bool               `json:"booking_open"`
	Tiers       []TierAvailability `json:"tiers"`
}

type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event, actor Actor) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListByClub(ctx context.Context, clubID string) ([]models.Event, error)
	PublishEvent(ctx context.Context, id string, actor Actor) (*models.Event, error)
	SetBookingOpen(ctx context.Context, id string, open bool, actor Actor) (*models.Event, error)
	ResizeCapacity(ctx context.Context, id string, capacity int, actor Actor) (*models.Event, error)
	Availability(ctx context.Context, id string) (*EventAvailability, error)
}

type eventService struct {
	events    repository.EventRepository
	clubs     repository.ClubRepository
	publisher *rabbitmq.Publisher
	auditor   Auditor
	snapshots *cache.Snapshots
	log       *logrus.Entry
}

func NewEventService(
	events repository.EventRepository,
	clubs repository.ClubRepository,
	publisher *rabbitmq.Publisher,
	auditor Auditor,
	snapshots *cache.Snapshots,
) EventService {
	return &eventService{
		events:    events,
		clubs:     clubs,
		publisher: publisher,
		auditor:   auditor,
		snapshots: snapshots,
		log:       logrus.WithField("component", "events"),
	}
}

// validateEvent enforces the creation-time invariants: a real time window,
// at least one tier, and tier capacities that collectively fit the venue.
func validateEvent(event *models.Event) error {
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if event.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidEvent)
	}
	if !event.EndTime.After(event.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidEvent)
	}
	if len(event.Tiers) == 0 {
		return fmt.Errorf("%w: at least one price tier is required", ErrInvalidEvent)
	}
	tierTotal := 0
	for _, tier := range event.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("%w: tier name is required", ErrInvalidEvent)
		}
		if tier.Capacity <= 0 {
			return fmt.Errorf("%w: tier %q capacity must be positive", ErrInvalidEvent, tier.Name)
		}
		if tier.Price < 0 {
			return fmt.Errorf("%w: tier %q price cannot be negative", ErrInvalidEvent, tier.Name)
		}
		tierTotal += tier.Capacity
	}
	if tierTotal > event.Capacity {
		return fmt.Errorf("%w: tier capacities (%d) exceed event capacity (%d)",
			ErrInvalidEvent, tierTotal, event.Capacity)
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *models.Event, actor Actor) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	club, err := s.clubs.FindByID(ctx, event.ClubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClubNotFound
		}
		return err
	}
	if !club.Enabled {
		return ErrClubDisabled
	}

	event.ID = uuid.NewString()
	event.Status = models.EventDraft
	event.BookedSeats = 0
	for i := range event.Tiers {
		event.Tiers[i].ID = uuid.NewString()
		event.Tiers[i].EventID = event.ID
		event.Tiers[i].BookedSeats = 0
		event.Tiers[i].Position = i
		if event.Tiers[i].Currency == "" {
			event.Tiers[i].Currency = "INR"
		}
	}

	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	s.publish("event.created", event)
	s.audit(ctx, actor, "event.created", event.ID, nil)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListByClub(ctx context.Context, clubID string) ([]models.Event, error) {
	return s.events.FindByClub(ctx, clubID)
}

func (s *eventService) PublishEvent(ctx context.Context, id string, actor Actor) (*models.Event, error) {
	var event *models.Event
	err := s.events.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.events.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if e.Status != models.EventDraft {
			return ErrEventNotDraft
		}
		e.Status = models.EventPublished
		e.BookingOpen = true
		event = e
		return s.events.Save(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}

	s.publish("event.published", event)
	s.audit(ctx, actor, "event.published", event.ID, nil)
	return event, nil
}

func (s *eventService) SetBookingOpen(ctx context.Context, id string, open bool, actor Actor) (*models.Event, error) {
	var event *models.Event
	err := s.events.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.events.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		e.BookingOpen = open
		event = e
		return s.events.Save(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}

	action := "event.booking_closed"
	if open {
		action = "event.booking_opened"
	}
	s.audit(ctx, actor, action, event.ID, nil)
	return event, nil
}

// ResizeCapacity changes the venue total. It takes the event row lock so a
// concurrent resize cannot interleave with another; the per-tier counters
// are untouched, so running bookings on individual tiers are unaffected.
func (s *eventService) ResizeCapacity(ctx context.Context, id string, capacity int, actor Actor) (*models.Event, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidEvent)
	}

	var event *models.Event
	err := s.events.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.events.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if capacity < e.BookedSeats {
			return ErrCapacityBelowBooked
		}
		tierTotal := 0
		var tiers []models.PriceTier
		if err := tx.WithContext(ctx).Where("event_id = ?", id).Find(&tiers).Error; err != nil {
			return err
		}
		for _, tier := range tiers {
			tierTotal += tier.Capacity
		}
		if tierTotal > capacity {
			return fmt.Errorf("%w: tier capacities (%d) exceed requested capacity (%d)",
				ErrInvalidEvent, tierTotal, capacity)
		}
		e.Capacity = capacity
		event = e
		return s.events.Save(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.InvalidateAvailability(ctx, id)
	s.publish("capacity.changed", event)
	s.audit(ctx, actor, "event.capacity_resized", event.ID, map[string]any{"capacity": capacity})
	return event, nil
}

// Availability serves the cached snapshot when fresh enough, falling back
// to the database. Short TTL plus invalidation after each capacity commit
// keeps dashboards off the tier lock.
func (s *eventService) Availability(ctx context.Context, id string) (*EventAvailability, error) {
	if raw, ok := s.snapshots.GetAvailability(ctx, id); ok {
		var snapshot EventAvailability
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			return &snapshot, nil
		}
	}

	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot := &EventAvailability{
		EventID:     event.ID,
		Title:       event.Title,
		Capacity:    event.Capacity,
		BookedSeats: event.BookedSeats,
		BookingOpen: event.BookingOpen,
		Tiers:       make([]TierAvailability, len(event.Tiers)),
	}
	for i, tier := range event.Tiers {
		snapshot.Tiers[i] = TierAvailability{
			TierID:    tier.ID,
			Name:      tier.Name,
			Price:     tier.Price,
			Currency:  tier.Currency,
			Capacity:  tier.Capacity,
			Booked:    tier.BookedSeats,
			Remaining: tier.Remaining(),
		}
	}

	if raw, err := json.Marshal(snapshot); err == nil {
		s.snapshots.SetAvailability(ctx, id, raw)
	}
	return snapshot, nil
}

func (s *eventService) publish(routingKey string, event *models.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, event); err != nil {
		s.log.WithError(err).WithField("routing_key", routingKey).Warn("event publish failed")
	}
}

func (s *eventService) audit(ctx context.Context, actor Actor, action, eventID string, detail map[string]any) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, actor, action, "event", eventID, detail)
}
