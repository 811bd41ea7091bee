package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// --- Mock EventRepository ---

type mockEventRepo struct {
	createFn     func(ctx context.Context, event *models.Event) error
	findByIDFn   func(ctx context.Context, id string) (*models.Event, error)
	findByClubFn func(ctx context.Context, clubID string) ([]models.Event, error)
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	return m.createFn(ctx, event)
}
func (m *mockEventRepo) Save(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	return nil
}
func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockEventRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockEventRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockEventRepo) FindByClub(ctx context.Context, clubID string) ([]models.Event, error) {
	return m.findByClubFn(ctx, clubID)
}
func (m *mockEventRepo) FindTierForUpdate(ctx context.Context, tx *gorm.DB, eventID, tierID string) (*models.PriceTier, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockEventRepo) AddBookedSeats(ctx context.Context, tx *gorm.DB, eventID, tierID string, delta int) error {
	return nil
}
func (m *mockEventRepo) GetDB() *gorm.DB { return nil }

// --- Mock ClubRepository ---

type mockClubRepo struct {
	findByIDFn func(ctx context.Context, id string) (*models.Club, error)
}

func (m *mockClubRepo) FindByID(ctx context.Context, id string) (*models.Club, error) {
	return m.findByIDFn(ctx, id)
}

func activeClubRepo() *mockClubRepo {
	return &mockClubRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Club, error) {
			return &models.Club{ID: id, Name: "Riverside Club", Enabled: true}, nil
		},
	}
}

func sampleEvent() *models.Event {
	return &models.Event{
		ClubID:      "club-1",
		Title:       "Summer Jazz Night",
		Capacity:    100,
		StartTime:   time.Date(2026, 10, 20, 19, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 10, 20, 23, 0, 0, 0, time.UTC),
		Tiers: []models.PriceTier{
			{Name: "VIP", Price: 2500, Capacity: 20},
			{Name: "General", Price: 900, Capacity: 80},
		},
	}
}

// --- Tests ---

func TestCreateEvent_Success(t *testing.T) {
	repo := &mockEventRepo{
		createFn: func(ctx context.Context, event *models.Event) error { return nil },
	}

	svc := NewEventService(repo, activeClubRepo(), nil, nil, nil)
	event := sampleEvent()

	err := svc.CreateEvent(context.Background(), event, Actor{ID: "owner-1", Role: "owner"})

	assert.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, models.EventDraft, event.Status)
	for i, tier := range event.Tiers {
		assert.NotEmpty(t, tier.ID)
		assert.Equal(t, event.ID, tier.EventID)
		assert.Equal(t, i, tier.Position)
		assert.Equal(t, "INR", tier.Currency)
		assert.Zero(t, tier.BookedSeats)
	}
}

func TestCreateEvent_TierCapacityExceedsEvent(t *testing.T) {
	svc := NewEventService(&mockEventRepo{}, activeClubRepo(), nil, nil, nil)

	event := sampleEvent()
	event.Capacity = 50 // tiers sum to 100

	err := svc.CreateEvent(context.Background(), event, Actor{ID: "owner-1", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestCreateEvent_Validation(t *testing.T) {
	svc := NewEventService(&mockEventRepo{}, activeClubRepo(), nil, nil, nil)
	actor := Actor{ID: "owner-1", Role: "owner"}

	event := sampleEvent()
	event.Title = ""
	assert.ErrorIs(t, svc.CreateEvent(context.Background(), event, actor), ErrInvalidEvent)

	event = sampleEvent()
	event.Tiers = nil
	assert.ErrorIs(t, svc.CreateEvent(context.Background(), event, actor), ErrInvalidEvent)

	event = sampleEvent()
	event.EndTime = event.StartTime.Add(-time.Hour)
	assert.ErrorIs(t, svc.CreateEvent(context.Background(), event, actor), ErrInvalidEvent)

	event = sampleEvent()
	event.Tiers[0].Capacity = 0
	assert.ErrorIs(t, svc.CreateEvent(context.Background(), event, actor), ErrInvalidEvent)

	event = sampleEvent()
	event.Tiers[0].Price = -1
	assert.ErrorIs(t, svc.CreateEvent(context.Background(), event, actor), ErrInvalidEvent)
}

func TestCreateEvent_ClubNotFound(t *testing.T) {
	clubs := &mockClubRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Club, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewEventService(&mockEventRepo{}, clubs, nil, nil, nil)

	err := svc.CreateEvent(context.Background(), sampleEvent(), Actor{ID: "owner-1", Role: "owner"})
	assert.ErrorIs(t, err, ErrClubNotFound)
}

func TestCreateEvent_ClubDisabled(t *testing.T) {
	clubs := &mockClubRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Club, error) {
			return &models.Club{ID: id, Enabled: false}, nil
		},
	}
	svc := NewEventService(&mockEventRepo{}, clubs, nil, nil, nil)

	err := svc.CreateEvent(context.Background(), sampleEvent(), Actor{ID: "owner-1", Role: "owner"})
	assert.ErrorIs(t, err, ErrClubDisabled)
}

func TestCreateEvent_RepoError(t *testing.T) {
	repo := &mockEventRepo{
		createFn: func(ctx context.Context, event *models.Event) error {
			return errors.New("db connection failed")
		},
	}
	svc := NewEventService(repo, activeClubRepo(), nil, nil, nil)

	err := svc.CreateEvent(context.Background(), sampleEvent(), Actor{ID: "owner-1", Role: "owner"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "db connection failed")
}

func TestGetEvent_NotFound(t *testing.T) {
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Event, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewEventService(repo, activeClubRepo(), nil, nil, nil)

	event, err := svc.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Nil(t, event)
}

func TestListByClub(t *testing.T) {
	repo := &mockEventRepo{
		findByClubFn: func(ctx context.Context, clubID string) ([]models.Event, error) {
			return []models.Event{
				{ID: "event-1", Title: "Jazz Night"},
				{ID: "event-2", Title: "Wine Tasting"},
			}, nil
		},
	}
	svc := NewEventService(repo, activeClubRepo(), nil, nil, nil)

	events, err := svc.ListByClub(context.Background(), "club-1")
	assert.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestAvailability_Uncached(t *testing.T) {
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Event, error) {
			return &models.Event{
				ID:          id,
				Title:       "Summer Jazz Night",
				Capacity:    100,
				BookedSeats: 25,
				BookingOpen: true,
				Tiers: []models.PriceTier{
					{ID: "tier-1", Name: "VIP", Capacity: 20, BookedSeats: 20},
					{ID: "tier-2", Name: "General", Capacity: 80, BookedSeats: 5},
				},
			}, nil
		},
	}
	svc := NewEventService(repo, activeClubRepo(), nil, nil, nil)

	snapshot, err := svc.Availability(context.Background(), "event-1")
	assert.NoError(t, err)
	assert.Equal(t, 100, snapshot.Capacity)
	assert.Equal(t, 25, snapshot.BookedSeats)
	assert.Len(t, snapshot.Tiers, 2)
	assert.Equal(t, 0, snapshot.Tiers[0].Remaining)
	assert.Equal(t, 75, snapshot.Tiers[1].Remaining)
}
