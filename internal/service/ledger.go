package service

import (
	"context"
	"errors"
	"time"

	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTierNotFound       = errors.New("price tier not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingClosed      = errors.New("booking is not open for this event")
	ErrAlreadyBooked      = errors.New("user already has an active booking for this event")
	ErrCapacityExceeded   = errors.New("not enough seats left and waitlist is unavailable")
	ErrInvalidSeatCount   = errors.New("seat count must be at least 1")
	ErrInvalidTransition  = errors.New("operation is not valid for the booking's current status")
	ErrAlreadyTerminal    = errors.New("booking is already cancelled or completed")
	ErrHoldExpired        = errors.New("booking hold has expired")
	ErrEventNotEnded      = errors.New("event has not ended yet")
	ErrOutsideEventWindow = errors.New("check-in is only possible during the event window")
)

// Actor identifies who triggered an operation, for audit attribution.
type Actor struct {
	ID   string
	Role string
}

var systemActor = Actor{ID: "system", Role: "system"}

// PaymentResult is the outcome the payment gateway reported for a booking.
// The ledger never talks to the gateway itself.
type PaymentResult struct {
	Succeeded         bool
	Provider          models.PaymentProvider
	ProviderPaymentID string
	Amount            float64
	Currency          string
	ErrorMessage      string
}

// Notifier delivers best-effort booking notifications. Failures are logged
// by implementations and never surface to the ledger's callers.
type Notifier interface {
	BookingConfirmed(b *models.Booking)
	BookingCancelled(b *models.Booking)
	WaitlistPromoted(b *models.Booking)
}

// Auditor records who did what after each state transition. Implementations
// swallow their own failures.
type Auditor interface {
	Record(ctx context.Context, actor Actor, action, targetType, targetID string, detail map[string]any)
}

// SnapshotInvalidator drops cached availability snapshots after capacity
// changes.
type SnapshotInvalidator interface {
	InvalidateAvailability(ctx context.Context, eventID string)
}

// BookingLedger owns the booking state machine and the seat-capacity
// counters. All capacity accounting for a (event, tier) pair happens under
// a row lock on the tier, taken inside a single transaction, so a capacity
// check and the increment it guards are one atomic step. The tier lock is
// always taken before any booking row lock.
type BookingLedger interface {
	RequestBooking(ctx context.Context, eventID, tierID, userID string, seats int) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, bookingID string, result PaymentResult) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, reason string, actor Actor) (*models.Booking, error)
	CheckIn(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error)
	ExpireHolds(ctx context.Context, now time.Time) (int, error)
	CompleteEvent(ctx context.Context, eventID string, actor Actor) (int64, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error)
}

type bookingLedger struct {
	bookings repository.BookingRepository
	events   repository.EventRepository
	payments repository.PaymentRepository

	notifier Notifier
	auditor  Auditor
	cache    SnapshotInvalidator

	holdDuration time.Duration
	now          func() time.Time
	log          *logrus.Entry
}

func NewBookingLedger(
	bookings repository.BookingRepository,
	events repository.EventRepository,
	payments repository.PaymentRepository,
	notifier Notifier,
	auditor Auditor,
	cache SnapshotInvalidator,
	holdDuration time.Duration,
) BookingLedger {
	return &bookingLedger{
		bookings:     bookings,
		events:       events,
		payments:     payments,
		notifier:     notifier,
		auditor:      auditor,
		cache:        cache,
		holdDuration: holdDuration,
		now:          time.Now,
		log:          logrus.WithField("component", "ledger"),
	}
}

func (l *bookingLedger) RequestBooking(ctx context.Context, eventID, tierID, userID string, seats int) (*models.Booking, error) {
	if seats < 1 {
		return nil, ErrInvalidSeatCount
	}

	var booking *models.Booking
	var expired, promoted []models.Booking

	err := l.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The tier row lock serializes all capacity changes on this
		// (event, tier) pair.
		tier, err := l.events.FindTierForUpdate(ctx, tx, eventID, tierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if _, evErr := l.events.FindByIDTx(ctx, tx, eventID); evErr != nil {
					return ErrEventNotFound
				}
				return ErrTierNotFound
			}
			return err
		}

		event, err := l.events.FindByIDTx(ctx, tx, eventID)
		if err != nil {
			return err
		}

		now := l.now()
		if event.Status != models.EventPublished || !event.BookingOpen || !now.Before(event.StartTime) {
			return ErrBookingClosed
		}

		_, err = l.bookings.FindActiveByUserAndEvent(ctx, tx, userID, eventID)
		if err == nil {
			return ErrAlreadyBooked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Fold overdue holds on this tier into the same atomic step, and
		// let the waitlist drain before the new request competes for what
		// was freed.
		if expired, err = l.expireTierLocked(ctx, tx, tier, now); err != nil {
			return err
		}
		if promoted, err = l.promoteLocked(ctx, tx, tier, now); err != nil {
			return err
		}

		if tier.Remaining() >= seats {
			expiry := now.Add(l.holdDuration)
			booking = &models.Booking{
				ID:            uuid.NewString(),
				UserID:        userID,
				EventID:       eventID,
				TierID:        tierID,
				Seats:         seats,
				Status:        models.StatusPending,
				Amount:        tier.Price * float64(seats),
				Currency:      tier.Currency,
				HoldExpiresAt: &expiry,
			}
			if err := l.bookings.Create(ctx, tx, booking); err != nil {
				return err
			}
			return l.reserveLocked(ctx, tx, tier, seats)
		}

		if !event.EnableWaitlist {
			return ErrCapacityExceeded
		}

		// Waitlisted bookings hold no seats; their place in line is the
		// insertion-order seq.
		booking = &models.Booking{
			ID:       uuid.NewString(),
			UserID:   userID,
			EventID:  eventID,
			TierID:   tierID,
			Seats:    seats,
			Status:   models.StatusWaitlisted,
			Amount:   tier.Price * float64(seats),
			Currency: tier.Currency,
		}
		return l.bookings.Create(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	l.afterCapacityChange(ctx, eventID, expired, promoted)
	l.audit(ctx, Actor{ID: userID, Role: "user"}, "booking.requested", booking, map[string]any{
		"seats": seats, "status": string(booking.Status),
	})
	return booking, nil
}

func (l *bookingLedger) ConfirmPayment(ctx context.Context, bookingID string, result PaymentResult) (*models.Booking, error) {
	var booking *models.Booking
	var expired, promoted []models.Booking
	holdExpired := false

	err := l.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Unlocked read to learn which tier to lock; the booking is
		// re-read under that lock below.
		ref, err := l.bookings.FindByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		tier, err := l.events.FindTierForUpdate(ctx, tx, ref.EventID, ref.TierID)
		if err != nil {
			return err
		}

		b, err := l.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		booking = b

		if b.Status.Terminal() {
			return ErrAlreadyTerminal
		}
		if b.Status != models.StatusPending {
			return ErrInvalidTransition
		}

		now := l.now()
		if b.HoldExpired(now) {
			// Lost the race against expiry: the hold is gone no matter
			// what the gateway said. Cancel, free the seats and record
			// the payment outcome so the money stays accounted for.
			if err := l.cancelLocked(ctx, tx, b, tier, "hold expired", now); err != nil {
				return err
			}
			expired = append(expired, *b)
			if promoted, err = l.promoteLocked(ctx, tx, tier, now); err != nil {
				return err
			}
			holdExpired = true
			return l.recordPayment(ctx, tx, b, result, now)
		}

		if result.Succeeded {
			if err := setStatus(b, models.StatusConfirmed); err != nil {
				return err
			}
			b.HoldExpiresAt = nil
			if err := l.bookings.Save(ctx, tx, b); err != nil {
				return err
			}
		} else {
			if err := l.cancelLocked(ctx, tx, b, tier, "payment failed", now); err != nil {
				return err
			}
			if promoted, err = l.promoteLocked(ctx, tx, tier, now); err != nil {
				return err
			}
		}
		return l.recordPayment(ctx, tx, b, result, now)
	})
	if err != nil {
		return nil, err
	}

	if holdExpired {
		l.afterCapacityChange(ctx, booking.EventID, expired, promoted)
		return nil, ErrHoldExpired
	}

	if result.Succeeded {
		if l.notifier != nil {
			l.notifier.BookingConfirmed(booking)
		}
		l.audit(ctx, systemActor, "booking.confirmed", booking, map[string]any{
			"provider": string(result.Provider), "amount": result.Amount,
		})
	} else {
		l.afterCapacityChange(ctx, booking.EventID, []models.Booking{*booking}, promoted)
		l.audit(ctx, systemActor, "booking.payment_failed", booking, map[string]any{
			"provider": string(result.Provider), "error": result.ErrorMessage,
		})
	}
	return booking, nil
}

func (l *bookingLedger) CancelBooking(ctx context.Context, bookingID, reason string, actor Actor) (*models.Booking, error) {
	var booking *models.Booking
	var promoted []models.Booking

	err := l.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := l.bookings.FindByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		tier, err := l.events.FindTierForUpdate(ctx, tx, ref.EventID, ref.TierID)
		if err != nil {
			return err
		}

		b, err := l.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		booking = b

		if b.Status.Terminal() {
			return ErrAlreadyTerminal
		}

		now := l.now()
		switch b.Status {
		case models.StatusPending, models.StatusConfirmed:
			if err := l.cancelLocked(ctx, tx, b, tier, reason, now); err != nil {
				return err
			}
			promoted, err = l.promoteLocked(ctx, tx, tier, now)
			return err
		case models.StatusWaitlisted:
			// Leaves the queue; no seats were held.
			if err := setStatus(b, models.StatusCancelled); err != nil {
				return err
			}
			b.CancellationReason = reason
			b.CancelledAt = &now
			return l.bookings.Save(ctx, tx, b)
		default:
			return ErrInvalidTransition
		}
	})
	if err != nil {
		return nil, err
	}

	if l.notifier != nil {
		l.notifier.BookingCancelled(booking)
	}
	l.afterCapacityChange(ctx, booking.EventID, nil, promoted)
	l.audit(ctx, actor, "booking.cancelled", booking, map[string]any{"reason": reason})
	return booking, nil
}

func (l *bookingLedger) CheckIn(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error) {
	booking, err := l.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}
	if booking.Status != models.StatusConfirmed {
		return nil, ErrInvalidTransition
	}

	event, err := l.events.FindByID(ctx, booking.EventID)
	if err != nil {
		return nil, ErrEventNotFound
	}
	now := l.now()
	if now.Before(event.StartTime) || now.After(event.EndTime) {
		return nil, ErrOutsideEventWindow
	}

	// The write carries its own status guard, so a cancellation or
	// completion committing after the read above cannot be overwritten
	// by this stale snapshot.
	ok, err := l.bookings.MarkCheckedIn(ctx, bookingID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	booking.CheckedInAt = &now
	l.audit(ctx, actor, "booking.checked_in", booking, nil)
	return booking, nil
}

// ExpireHolds sweeps overdue pending holds. The unlocked candidate scan only
// discovers which tiers need work; each booking is re-checked under its tier
// lock, so racing confirmations are decided there. Safe to re-run.
func (l *bookingLedger) ExpireHolds(ctx context.Context, now time.Time) (int, error) {
	candidates, err := l.bookings.FindExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	type tierKey struct{ eventID, tierID string }
	seen := make(map[tierKey]bool)
	total := 0

	for _, c := range candidates {
		key := tierKey{c.EventID, c.TierID}
		if seen[key] {
			continue
		}
		seen[key] = true

		var expired, promoted []models.Booking
		err := l.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tier, err := l.events.FindTierForUpdate(ctx, tx, key.eventID, key.tierID)
			if err != nil {
				return err
			}
			if expired, err = l.expireTierLocked(ctx, tx, tier, now); err != nil {
				return err
			}
			promoted, err = l.promoteLocked(ctx, tx, tier, now)
			return err
		})
		if err != nil {
			// Keep sweeping the other tiers; the next run retries this one.
			l.log.WithError(err).WithFields(logrus.Fields{
				"event_id": key.eventID, "tier_id": key.tierID,
			}).Warn("hold expiry pass failed")
			continue
		}

		total += len(expired)
		l.afterCapacityChange(ctx, key.eventID, expired, promoted)
		for i := range expired {
			l.audit(ctx, systemActor, "booking.hold_expired", &expired[i], nil)
		}
	}
	return total, nil
}

func (l *bookingLedger) CompleteEvent(ctx context.Context, eventID string, actor Actor) (int64, error) {
	var count int64
	err := l.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := l.events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if l.now().Before(event.EndTime) {
			return ErrEventNotEnded
		}

		if count, err = l.bookings.CompleteConfirmed(ctx, tx, eventID); err != nil {
			return err
		}
		if event.Status != models.EventCompleted {
			event.Status = models.EventCompleted
			event.BookingOpen = false
			if err := l.events.Save(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.auditTarget(ctx, actor, "event.completed", "event", eventID, map[string]any{"completed_bookings": count})
	return count, nil
}

func (l *bookingLedger) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := l.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (l *bookingLedger) ListBookings(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error) {
	return l.bookings.FindByEventID(ctx, eventID, status)
}

// --- internals; all *Locked helpers require the tier row lock ---

// setStatus applies a state-machine move. The transition table is the
// single authority on which moves are legal; every status assignment in
// the ledger goes through here.
func setStatus(b *models.Booking, to models.BookingStatus) error {
	if !models.CanTransition(b.Status, to) {
		return ErrInvalidTransition
	}
	b.Status = to
	return nil
}

// reserveLocked consumes seats from the locked tier and the event aggregate.
func (l *bookingLedger) reserveLocked(ctx context.Context, tx *gorm.DB, tier *models.PriceTier, seats int) error {
	if err := l.events.AddBookedSeats(ctx, tx, tier.EventID, tier.ID, seats); err != nil {
		return err
	}
	tier.BookedSeats += seats
	return nil
}

// cancelLocked moves a seat-holding booking to cancelled and gives its seats
// back to the tier.
func (l *bookingLedger) cancelLocked(ctx context.Context, tx *gorm.DB, b *models.Booking, tier *models.PriceTier, reason string, now time.Time) error {
	if err := setStatus(b, models.StatusCancelled); err != nil {
		return err
	}
	b.CancellationReason = reason
	b.CancelledAt = &now
	b.HoldExpiresAt = nil
	if err := l.bookings.Save(ctx, tx, b); err != nil {
		return err
	}
	return l.reserveLocked(ctx, tx, tier, -b.Seats)
}

// expireTierLocked cancels every overdue pending hold on the locked tier and
// releases their seats.
func (l *bookingLedger) expireTierLocked(ctx context.Context, tx *gorm.DB, tier *models.PriceTier, now time.Time) ([]models.Booking, error) {
	overdue, err := l.bookings.FindExpiredPendingForTier(ctx, tx, tier.EventID, tier.ID, now)
	if err != nil {
		return nil, err
	}
	var expired []models.Booking
	for i := range overdue {
		b := &overdue[i]
		if err := l.cancelLocked(ctx, tx, b, tier, "hold expired", now); err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, nil
}

// promoteLocked drains the tier's FIFO waitlist while the head entry fits.
// Strict FIFO: if the head needs more seats than remain, nothing behind it
// is considered, even if it would fit. Large requests can wait indefinitely;
// that is the accepted fairness trade-off, not an oversight.
func (l *bookingLedger) promoteLocked(ctx context.Context, tx *gorm.DB, tier *models.PriceTier, now time.Time) ([]models.Booking, error) {
	var promoted []models.Booking
	for {
		head, err := l.bookings.FirstWaitlisted(ctx, tx, tier.EventID, tier.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return promoted, nil
			}
			return nil, err
		}
		if tier.Remaining() < head.Seats {
			return promoted, nil
		}

		expiry := now.Add(l.holdDuration)
		if err := setStatus(head, models.StatusPending); err != nil {
			return nil, err
		}
		head.HoldExpiresAt = &expiry
		if err := l.bookings.Save(ctx, tx, head); err != nil {
			return nil, err
		}
		if err := l.reserveLocked(ctx, tx, tier, head.Seats); err != nil {
			return nil, err
		}
		promoted = append(promoted, *head)
	}
}

func (l *bookingLedger) recordPayment(ctx context.Context, tx *gorm.DB, b *models.Booking, result PaymentResult, now time.Time) error {
	status := models.PaymentFailed
	var paidAt *time.Time
	if result.Succeeded {
		status = models.PaymentSucceeded
		paidAt = &now
	}
	amount := result.Amount
	if amount == 0 {
		amount = b.Amount
	}
	currency := result.Currency
	if currency == "" {
		currency = b.Currency
	}
	return l.payments.Create(ctx, tx, &models.Payment{
		ID:                uuid.NewString(),
		BookingID:         b.ID,
		Provider:          result.Provider,
		ProviderPaymentID: result.ProviderPaymentID,
		Amount:            amount,
		Currency:          currency,
		Status:            status,
		ErrorMessage:      result.ErrorMessage,
		PaidAt:            paidAt,
	})
}

// afterCapacityChange runs the post-commit side effects: snapshot
// invalidation, expiry/promotion notifications and promotion audits. All
// best-effort; the committed state change stands regardless.
func (l *bookingLedger) afterCapacityChange(ctx context.Context, eventID string, expired, promoted []models.Booking) {
	if l.cache != nil {
		l.cache.InvalidateAvailability(ctx, eventID)
	}
	if l.notifier != nil {
		for i := range expired {
			l.notifier.BookingCancelled(&expired[i])
		}
		for i := range promoted {
			l.notifier.WaitlistPromoted(&promoted[i])
		}
	}
	for i := range promoted {
		l.audit(ctx, systemActor, "booking.promoted", &promoted[i], nil)
	}
}

func (l *bookingLedger) audit(ctx context.Context, actor Actor, action string, b *models.Booking, detail map[string]any) {
	if b == nil {
		return
	}
	l.auditTarget(ctx, actor, action, "booking", b.ID, detail)
}

func (l *bookingLedger) auditTarget(ctx context.Context, actor Actor, action, targetType, targetID string, detail map[string]any) {
	if l.auditor == nil {
		return
	}
	l.auditor.Record(ctx, actor, action, targetType, targetID, detail)
}
