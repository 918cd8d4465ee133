package notifications

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	config "github.com/wanderpal/tour_guide/configs"
)

// Event types keyed off booking and guide lifecycle transitions.
const (
	EventBookingCreated         = "booking_created"
	EventGuideAssigned          = "guide_assigned"
	EventGuideFound             = "guide_found"
	EventAllocationFailed       = "allocation_failed"
	EventBookingConfirmed       = "booking_confirmed"
	EventGuideReassigned        = "guide_reassigned"
	EventTourCancelled          = "tour_cancelled"
	EventTourCompleted          = "tour_completed"
	EventTourAutoCompleted      = "tour_auto_completed"
	EventGuideDeletionFinalized = "guide_deletion_finalized"
)

// BookingEvent is the structured payload handed to the notification sink for
// every state transition. Delivery is asynchronous and best-effort: a failure
// is logged by the email client and never surfaces to the triggering
// operation.
type BookingEvent struct {
	Type           string
	BookingID      uuid.UUID
	RecipientRole  string
	RecipientName  string
	RecipientEmail string
	Payload        map[string]string
}

// Dispatch renders the event for its recipient and sends it without blocking.
func Dispatch(ev BookingEvent) {
	subject, body := renderEvent(ev)
	if subject == "" {
		log.Printf("⚠️ Unknown notification event type %q for booking %s", ev.Type, ev.BookingID)
		return
	}
	go SendEmail(ev.RecipientName, ev.RecipientEmail, subject, body)
}

// DispatchOps routes an event to the operations channel (OPS_EMAIL).
func DispatchOps(ev BookingEvent) {
	opsEmail := config.Config("OPS_EMAIL")
	if opsEmail == "" {
		log.Println("⚠️ OPS_EMAIL not set, skipping operations notification")
		return
	}
	ev.RecipientRole = "operations"
	ev.RecipientName = "Operations"
	ev.RecipientEmail = opsEmail

	subject := fmt.Sprintf("[ops] %s - booking %s", ev.Type, ev.BookingID)
	body := fmt.Sprintf("<h1>%s</h1><p>Booking: %s</p>", ev.Type, ev.BookingID)
	for k, v := range ev.Payload {
		body += fmt.Sprintf("<p><b>%s:</b> %s</p>", k, v)
	}
	go SendEmail(ev.RecipientName, ev.RecipientEmail, subject, body)
}

func renderEvent(ev BookingEvent) (string, string) {
	p := ev.Payload
	if p == nil {
		p = map[string]string{}
	}

	switch ev.Type {
	case EventBookingCreated:
		return "Your Booking is Confirmed - Keep Your Completion PIN Safe!",
			fmt.Sprintf("<h1>Booking Received</h1><p>Your payment was successful and we are assigning a guide for your trip from %s to %s.</p><p><b>Your completion PIN is %s.</b> Share it with your guide only at the end of the tour; it is how we know the tour actually happened.</p>",
				p["check_in"], p["check_out"], p["completion_pin"])
	case EventGuideAssigned:
		return "You Have a New Tour Assignment!",
			fmt.Sprintf("<h1>New Assignment</h1><p>A tourist has booked you for a tour from %s to %s. Please accept or decline the assignment from your dashboard.</p>",
				p["check_in"], p["check_out"])
	case EventGuideFound:
		return "Good News - We Found You a Guide!",
			fmt.Sprintf("<h1>Guide Assigned</h1><p>%s will be your guide for the trip from %s to %s. They will confirm the assignment shortly.</p>",
				p["guide_name"], p["check_in"], p["check_out"])
	case EventAllocationFailed:
		return "We Are Finding You a Guide",
			"<h1>Booking Received</h1><p>Your payment was successful. No guide was immediately available for your dates, so our team is finding one for you manually. We will be in touch shortly. The completion PIN from your confirmation email stays valid.</p>"
	case EventBookingConfirmed:
		return "Your Guide Confirmed the Tour!",
			fmt.Sprintf("<h1>Tour Confirmed</h1><p>%s has accepted your booking. Have a great trip!</p>", p["guide_name"])
	case EventGuideReassigned:
		return "Your Tour Has a New Guide",
			fmt.Sprintf("<h1>Guide Changed</h1><p>Your originally assigned guide is no longer available, so we matched you with %s. Your dates and price are unchanged.</p>", p["new_guide"])
	case EventTourCancelled:
		return "Your Booking Was Cancelled - Refund In Progress",
			"<h1>Booking Cancelled</h1><p>We could not find an available guide for your dates. A full refund is being processed and will reach you within a few business days.</p>"
	case EventTourCompleted:
		return "Tour Completed - Thank You!",
			"<h1>Tour Completed</h1><p>Your tour has been marked as completed. We hope you had a wonderful trip. Consider leaving your guide a review.</p>"
	case EventTourAutoCompleted:
		return "Your Tour Was Marked as Completed",
			"<h1>Tour Completed</h1><p>Your tour checkout date has passed, so we marked the booking as completed automatically.</p>"
	case EventGuideDeletionFinalized:
		return "Your Guide Account Has Been Deactivated",
			"<h1>Account Deactivated</h1><p>Your guide profile deletion grace period has ended and your profile has been deactivated. Your account remains usable as a tourist account. Thank you for guiding with us.</p>"
	}
	return "", ""
}
