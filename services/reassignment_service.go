package services

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/models"
	"github.com/wanderpal/tour_guide/notifications"
	"gorm.io/gorm"
)

// HandleGuideRejection runs the reassignment cascade after a guide declines a
// pending booking. The conditional write is keyed by (booking id, rejecting
// guide id), so re-delivering the same rejection fails the WHERE clause and
// nothing is reassigned or notified twice. Returns the updated booking; its
// status tells the caller whether a replacement was found or the booking was
// cancelled for an out-of-band refund.
func HandleGuideRejection(db *gorm.DB, bookingID, rejectingGuideID uuid.UUID, rng *rand.Rand) (*models.Booking, error) {
	return handleGuideRejection(gormLedgerStore{db: db}, bookingID, rejectingGuideID, rng)
}

func handleGuideRejection(store ledgerStore, bookingID, rejectingGuideID uuid.UUID, rng *rand.Rand) (*models.Booking, error) {
	var booking *models.Booking
	var replacement *models.Guide

	err := store.InTx(func(l bookingLedger) error {
		b, err := l.LockBooking(bookingID)
		if err != nil {
			return err
		}
		booking = b

		if b.BookingStatus != StatusPendingGuideConfirmation ||
			b.GuideID == nil || *b.GuideID != rejectingGuideID {
			return ErrInvalidStateTransition
		}

		updates := map[string]interface{}{}
		// The first guide ever offered this booking is preserved across every
		// subsequent cascade.
		if b.OriginalGuideID == nil {
			updates["original_guide_id"] = rejectingGuideID
		}

		guide, err := AllocateGuide(l, b.CheckIn, b.CheckOut,
			SplitLanguages(b.RequestedLanguages), []uuid.UUID{rejectingGuideID}, rng)
		if err != nil && !errors.Is(err, ErrAllocationExhausted) {
			return err
		}

		if guide != nil {
			updates["guide_id"] = guide.UserID
			affected, err := l.UpdateBookingGuarded(b.ID, StatusPendingGuideConfirmation, &rejectingGuideID, updates)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrInvalidStateTransition
			}

			if b.OriginalGuideID == nil {
				original := rejectingGuideID
				b.OriginalGuideID = &original
			}
			assigned := guide.UserID
			b.GuideID = &assigned
			replacement = guide

			return l.AppendActivity(b.ID, ActivityGuideReassigned,
				fmt.Sprintf("Guide %s declined the booking; reassigned to guide %s.", rejectingGuideID, guide.UserID))
		}

		// No replacement: terminal failure path. The refund itself happens
		// out-of-band; the payment row is only flagged for it, the captured
		// payment status stays as it was.
		updates["booking_status"] = StatusCancelled
		affected, err := l.UpdateBookingGuarded(b.ID, StatusPendingGuideConfirmation, &rejectingGuideID, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStateTransition
		}

		if b.OriginalGuideID == nil {
			original := rejectingGuideID
			b.OriginalGuideID = &original
		}
		b.BookingStatus = StatusCancelled

		if err := l.FlagPaymentForRefund(b.ID, "pending",
			"Booking cancelled: no replacement guide available after rejection."); err != nil {
			return err
		}

		return l.AppendActivity(b.ID, ActivityTourCancelled,
			fmt.Sprintf("Guide %s declined the booking and no replacement guide was available. Booking cancelled, refund pending.", rejectingGuideID))
	})
	if err != nil {
		return nil, err
	}

	// Notifications never roll back the transition; failures are only logged
	// inside the sink.
	if replacement != nil {
		if guideUser, err := store.FindUser(replacement.UserID); err == nil {
			notifications.Dispatch(notifications.BookingEvent{
				Type:           notifications.EventGuideAssigned,
				BookingID:      booking.ID,
				RecipientRole:  "guide",
				RecipientName:  guideUser.FullName,
				RecipientEmail: guideUser.Email,
				Payload: map[string]string{
					"check_in":  booking.CheckIn.Format("2006-01-02"),
					"check_out": booking.CheckOut.Format("2006-01-02"),
				},
			})
			notifications.Dispatch(notifications.BookingEvent{
				Type:           notifications.EventGuideReassigned,
				BookingID:      booking.ID,
				RecipientRole:  "tourist",
				RecipientName:  booking.Tourist.FullName,
				RecipientEmail: booking.Tourist.Email,
				Payload:        map[string]string{"new_guide": guideUser.FullName},
			})
		}
		notifications.DispatchOps(notifications.BookingEvent{
			Type:      notifications.EventGuideReassigned,
			BookingID: booking.ID,
			Payload: map[string]string{
				"old_guide": rejectingGuideID.String(),
				"new_guide": replacement.UserID.String(),
			},
		})
	} else {
		notifications.Dispatch(notifications.BookingEvent{
			Type:           notifications.EventTourCancelled,
			BookingID:      booking.ID,
			RecipientRole:  "tourist",
			RecipientName:  booking.Tourist.FullName,
			RecipientEmail: booking.Tourist.Email,
		})
		notifications.DispatchOps(notifications.BookingEvent{
			Type:      notifications.EventTourCancelled,
			BookingID: booking.ID,
			Payload:   map[string]string{"reason": "allocation exhausted after guide rejection, manual refund required"},
		})
	}

	return booking, nil
}
