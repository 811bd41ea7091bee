package service

import (
	"context"
	"testing"
	"time"

	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*models.Booking, error)
	markCheckedInFn func(ctx context.Context, id string, at time.Time) (bool, error)
	saveCalls       int
}

func (m *mockBookingRepo) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return nil
}
func (m *mockBookingRepo) Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	m.saveCalls++
	return nil
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) FindByEventID(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) FindActiveByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID string) (*models.Booking, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockBookingRepo) FindExpiredPending(ctx context.Context, now time.Time) ([]models.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) FindExpiredPendingForTier(ctx context.Context, tx *gorm.DB, eventID, tierID string, now time.Time) ([]models.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) FirstWaitlisted(ctx context.Context, tx *gorm.DB, eventID, tierID string) (*models.Booking, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockBookingRepo) CompleteConfirmed(ctx context.Context, tx *gorm.DB, eventID string) (int64, error) {
	return 0, nil
}
func (m *mockBookingRepo) MarkCheckedIn(ctx context.Context, id string, at time.Time) (bool, error) {
	return m.markCheckedInFn(ctx, id, at)
}
func (m *mockBookingRepo) GetDB() *gorm.DB { return nil }

// --- Helpers ---

func checkInFixture(status models.BookingStatus) (*mockBookingRepo, *mockEventRepo, time.Time) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return &models.Booking{ID: id, EventID: "event-1", Status: status}, nil
		},
		markCheckedInFn: func(ctx context.Context, id string, at time.Time) (bool, error) {
			return true, nil
		},
	}
	events := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Event, error) {
			return &models.Event{ID: id, StartTime: start, EndTime: end}, nil
		},
	}
	return bookings, events, start
}

func newTestLedger(bookings *mockBookingRepo, events *mockEventRepo, now time.Time) *bookingLedger {
	l := NewBookingLedger(bookings, events, nil, nil, nil, nil, 15*time.Minute).(*bookingLedger)
	l.now = func() time.Time { return now }
	return l
}

// --- Tests ---

func TestCheckIn_Success(t *testing.T) {
	bookings, events, start := checkInFixture(models.StatusConfirmed)
	ledger := newTestLedger(bookings, events, start.Add(time.Hour))

	b, err := ledger.CheckIn(context.Background(), "booking-1", Actor{ID: "staff-1", Role: "staff"})

	assert.NoError(t, err)
	assert.NotNil(t, b.CheckedInAt)
	assert.Equal(t, 0, bookings.saveCalls)
}

// A cancellation can commit between CheckIn's read and its write. The write
// must then report the transition as invalid instead of reviving the stale
// confirmed snapshot.
func TestCheckIn_CancelledAfterRead(t *testing.T) {
	bookings, events, start := checkInFixture(models.StatusConfirmed)
	bookings.markCheckedInFn = func(ctx context.Context, id string, at time.Time) (bool, error) {
		return false, nil
	}
	ledger := newTestLedger(bookings, events, start.Add(time.Hour))

	_, err := ledger.CheckIn(context.Background(), "booking-1", Actor{ID: "staff-1", Role: "staff"})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, bookings.saveCalls, "a lost status race must not write the stale row back")
}

func TestCheckIn_TerminalBooking(t *testing.T) {
	bookings, events, start := checkInFixture(models.StatusCancelled)
	ledger := newTestLedger(bookings, events, start.Add(time.Hour))

	_, err := ledger.CheckIn(context.Background(), "booking-1", Actor{ID: "staff-1", Role: "staff"})

	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCheckIn_OutsideWindow(t *testing.T) {
	bookings, events, start := checkInFixture(models.StatusConfirmed)
	ledger := newTestLedger(bookings, events, start.Add(-time.Hour))

	_, err := ledger.CheckIn(context.Background(), "booking-1", Actor{ID: "staff-1", Role: "staff"})

	assert.ErrorIs(t, err, ErrOutsideEventWindow)
}

func TestSetStatus(t *testing.T) {
	cases := []struct {
		name    string
		from    models.BookingStatus
		to      models.BookingStatus
		wantErr error
	}{
		{"pending to confirmed", models.StatusPending, models.StatusConfirmed, nil},
		{"waitlisted to cancelled", models.StatusWaitlisted, models.StatusCancelled, nil},
		{"cancelled to confirmed", models.StatusCancelled, models.StatusConfirmed, ErrInvalidTransition},
		{"completed to cancelled", models.StatusCompleted, models.StatusCancelled, ErrInvalidTransition},
		{"waitlisted to confirmed", models.StatusWaitlisted, models.StatusConfirmed, ErrInvalidTransition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &models.Booking{Status: tc.from}
			err := setStatus(b, tc.to)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.from, b.Status, "a rejected move must leave the status untouched")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.to, b.Status)
		})
	}
}
