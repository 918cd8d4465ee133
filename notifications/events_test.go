package notifications

import (
	"strings"
	"testing"
)

func TestBookingCreatedEmailCarriesCompletionPin(t *testing.T) {
	subject, body := renderEvent(BookingEvent{
		Type: EventBookingCreated,
		Payload: map[string]string{
			"check_in":       "2026-06-01",
			"check_out":      "2026-06-05",
			"completion_pin": "123456",
		},
	})
	if subject == "" {
		t.Fatal("booking_created must render a subject")
	}
	if !strings.Contains(body, "123456") {
		t.Error("the booking confirmation email must deliver the completion PIN")
	}
}

func TestRenderEventCoversAllTypes(t *testing.T) {
	types := []string{
		EventBookingCreated,
		EventGuideAssigned,
		EventGuideFound,
		EventAllocationFailed,
		EventBookingConfirmed,
		EventGuideReassigned,
		EventTourCancelled,
		EventTourCompleted,
		EventTourAutoCompleted,
		EventGuideDeletionFinalized,
	}
	for _, typ := range types {
		subject, body := renderEvent(BookingEvent{Type: typ})
		if subject == "" || body == "" {
			t.Errorf("event %q has no rendering", typ)
		}
	}
}

func TestRenderEventUnknownType(t *testing.T) {
	if subject, _ := renderEvent(BookingEvent{Type: "mystery"}); subject != "" {
		t.Errorf("unknown event rendered subject %q", subject)
	}
}
