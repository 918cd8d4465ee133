package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/models"
	"gorm.io/gorm"
)

// CompletionGracePeriod is how long after checkout a confirmed booking may sit
// before the auto-completion sweep settles it without a PIN.
const CompletionGracePeriod = 72 * time.Hour

// ValidateCompletion checks the preconditions for PIN-driven completion.
// State is checked before the PIN: a booking outside confirmed fails with
// ErrInvalidStateTransition and no PIN comparison happens.
func ValidateCompletion(b *models.Booking, suppliedPin string) error {
	if b.BookingStatus != StatusConfirmed {
		return ErrInvalidStateTransition
	}
	if b.CompletionPin != suppliedPin {
		return ErrInvalidPin
	}
	return nil
}

// CreditCompletion is the single crediting contract shared by the PIN path and
// the auto-completion sweep: status → completed, one activity entry, and the
// guide's total_earnings and completed_tours_count incremented, all inside the
// caller's transaction. The conditional status write makes re-runs no-ops, so
// earnings are credited at most once per booking.
func CreditCompletion(tx *gorm.DB, booking *models.Booking, activityType, message string) error {
	return creditCompletion(newGormLedger(tx), booking, activityType, message)
}

func creditCompletion(l bookingLedger, booking *models.Booking, activityType, message string) error {
	if booking.GuideID == nil {
		return ErrInvalidStateTransition
	}
	guideID := *booking.GuideID

	if err := transitionBooking(l, booking, StatusCompleted, nil, activityType, message); err != nil {
		return err
	}

	return l.CreditGuide(guideID, booking.GuideEarnings)
}

// CompleteTour settles a confirmed booking after verifying the completion PIN
// the tourist hands to the guide.
func CompleteTour(db *gorm.DB, bookingID uuid.UUID, suppliedPin string) (*models.Booking, error) {
	return completeTour(gormLedgerStore{db: db}, bookingID, suppliedPin)
}

func completeTour(store ledgerStore, bookingID uuid.UUID, suppliedPin string) (*models.Booking, error) {
	var booking *models.Booking
	err := store.InTx(func(l bookingLedger) error {
		b, err := l.LockBooking(bookingID)
		if err != nil {
			return err
		}
		if err := ValidateCompletion(b, suppliedPin); err != nil {
			return err
		}
		booking = b
		return creditCompletion(l, b, ActivityTourCompleted,
			"Tour verified with completion PIN and marked as completed. Guide earnings credited.")
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CompleteTourSystem is the sweep-driven variant: same crediting contract, no
// PIN, activity tagged as system-driven.
func CompleteTourSystem(db *gorm.DB, bookingID uuid.UUID) (*models.Booking, error) {
	return completeTourSystem(gormLedgerStore{db: db}, bookingID)
}

func completeTourSystem(store ledgerStore, bookingID uuid.UUID) (*models.Booking, error) {
	var booking *models.Booking
	err := store.InTx(func(l bookingLedger) error {
		b, err := l.LockBooking(bookingID)
		if err != nil {
			return err
		}
		if b.BookingStatus != StatusConfirmed {
			return ErrInvalidStateTransition
		}
		booking = b
		msg := fmt.Sprintf("Tour auto-completed by the system: checkout passed more than %s ago without manual completion.", CompletionGracePeriod)
		return creditCompletion(l, b, ActivityAutoCompleted, msg)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}
