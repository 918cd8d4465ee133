package services

import (
	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/models"
	"gorm.io/gorm"
)

// Activity types recorded on the booking audit trail.
const (
	ActivityBookingCreated   = "booking_created"
	ActivityGuideAssigned    = "guide_assigned"
	ActivityAllocationFailed = "allocation_failed"
	ActivityTourConfirmed    = "tour_confirmed"
	ActivityGuideReassigned  = "guide_reassigned"
	ActivityTourCancelled    = "tour_cancelled"
	ActivityTourCompleted    = "tour_completed"
	ActivityAutoCompleted    = "tour_auto_completed"
)

var bookingTransitions = map[string][]string{
	StatusPendingGuideConfirmation: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:                {StatusCompleted},
	// cancelled and completed are terminal
}

// CanTransition reports whether the state machine permits from → to.
func CanTransition(from, to string) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AppendActivity adds one append-only audit entry. Existing entries are never
// updated or reordered.
func AppendActivity(tx *gorm.DB, bookingID uuid.UUID, activityType, message string) error {
	return tx.Create(&models.BookingActivity{
		BookingID: bookingID,
		Type:      activityType,
		Message:   message,
	}).Error
}

// TransitionBooking moves a booking to a new status with a conditional write:
// the UPDATE only applies while the row still holds the expected current
// status, so a concurrent transition loses with ErrInvalidStateTransition and
// leaves no side effects. Every successful transition appends exactly one
// activity entry. Extra column updates ride in the same statement.
func TransitionBooking(tx *gorm.DB, booking *models.Booking, to string, updates map[string]interface{}, activityType, message string) error {
	return transitionBooking(newGormLedger(tx), booking, to, updates, activityType, message)
}

func transitionBooking(l bookingLedger, booking *models.Booking, to string, updates map[string]interface{}, activityType, message string) error {
	from := booking.BookingStatus
	if !CanTransition(from, to) {
		return ErrInvalidStateTransition
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["booking_status"] = to

	affected, err := l.UpdateBookingGuarded(booking.ID, from, nil, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidStateTransition
	}

	booking.BookingStatus = to
	return l.AppendActivity(booking.ID, activityType, message)
}
