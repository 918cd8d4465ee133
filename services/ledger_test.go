package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/models"
	"gorm.io/gorm"
)

// memLedger backs the completion and reassignment paths in tests. It applies
// the same guard semantics as the SQL implementation: conditional writes fail
// silently (zero rows) when the expected status or guide no longer matches.
type memLedger struct {
	guides     []models.Guide
	bookings   map[uuid.UUID]*models.Booking
	payments   map[uuid.UUID]*models.Payment
	users      map[uuid.UUID]models.User
	activities []models.BookingActivity
	credits    map[uuid.UUID]int
	earned     map[uuid.UUID]float64
}

func newMemLedger() *memLedger {
	return &memLedger{
		bookings: make(map[uuid.UUID]*models.Booking),
		payments: make(map[uuid.UUID]*models.Payment),
		users:    make(map[uuid.UUID]models.User),
		credits:  make(map[uuid.UUID]int),
		earned:   make(map[uuid.UUID]float64),
	}
}

func (m *memLedger) InTx(fn func(bookingLedger) error) error { return fn(m) }

func (m *memLedger) FindUser(id uuid.UUID) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	u := models.User{ID: id, FullName: "Somebody", Email: "somebody@example.com"}
	return &u, nil
}

func (m *memLedger) EligibleGuides() ([]models.Guide, error) { return m.guides, nil }

func (m *memLedger) ActiveBookingsOverlapping(checkIn, checkOut time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range m.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memLedger) LockBooking(id uuid.UUID) (*models.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	snapshot := *b
	if u, ok := m.users[snapshot.TouristID]; ok {
		snapshot.Tourist = u
	}
	return &snapshot, nil
}

func (m *memLedger) UpdateBookingGuarded(id uuid.UUID, fromStatus string, guideID *uuid.UUID, updates map[string]interface{}) (int64, error) {
	b, ok := m.bookings[id]
	if !ok {
		return 0, nil
	}
	if b.BookingStatus != fromStatus {
		return 0, nil
	}
	if guideID != nil && (b.GuideID == nil || *b.GuideID != *guideID) {
		return 0, nil
	}
	for col, v := range updates {
		switch col {
		case "booking_status":
			b.BookingStatus = v.(string)
		case "guide_id":
			gid := v.(uuid.UUID)
			b.GuideID = &gid
		case "original_guide_id":
			gid := v.(uuid.UUID)
			b.OriginalGuideID = &gid
		case "payment_status":
			b.PaymentStatus = v.(string)
		}
	}
	return 1, nil
}

func (m *memLedger) AppendActivity(bookingID uuid.UUID, activityType, message string) error {
	m.activities = append(m.activities, models.BookingActivity{
		BookingID: bookingID,
		Type:      activityType,
		Message:   message,
	})
	return nil
}

func (m *memLedger) CreditGuide(guideID uuid.UUID, earnings float64) error {
	m.credits[guideID]++
	m.earned[guideID] += earnings
	return nil
}

func (m *memLedger) FlagPaymentForRefund(bookingID uuid.UUID, status, reason string) error {
	p, ok := m.payments[bookingID]
	if !ok {
		return nil
	}
	p.RefundStatus = &status
	p.RefundReason = &reason
	return nil
}

func pendingBooking(guideID uuid.UUID) *models.Booking {
	return &models.Booking{
		ID:                 uuid.New(),
		TouristID:          uuid.New(),
		BookingStatus:      StatusPendingGuideConfirmation,
		GuideID:            &guideID,
		CheckIn:            day(1),
		CheckOut:           day(5),
		RequestedLanguages: "english",
		PaymentStatus:      "paid",
	}
}

func TestCompleteTourCreditsExactlyOnce(t *testing.T) {
	store := newMemLedger()
	guideID := uuid.New()
	booking := pendingBooking(guideID)
	booking.BookingStatus = StatusConfirmed
	booking.CompletionPin = "123456"
	booking.GuideEarnings = 80
	store.bookings[booking.ID] = booking

	settled, err := completeTour(store, booking.ID, "123456")
	if err != nil {
		t.Fatalf("completeTour() error = %v", err)
	}
	if settled.BookingStatus != StatusCompleted {
		t.Errorf("booking status = %q, want %q", settled.BookingStatus, StatusCompleted)
	}
	if store.credits[guideID] != 1 || store.earned[guideID] != 80 {
		t.Errorf("guide credited %d times for %.2f, want once for 80.00", store.credits[guideID], store.earned[guideID])
	}

	// Replaying the completion must credit nothing.
	if _, err := completeTour(store, booking.ID, "123456"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("second completion = %v, want ErrInvalidStateTransition", err)
	}
	if store.credits[guideID] != 1 || store.earned[guideID] != 80 {
		t.Errorf("replay changed credits to %d/%.2f", store.credits[guideID], store.earned[guideID])
	}
}

func TestCompleteTourSystemCreditsExactlyOnce(t *testing.T) {
	store := newMemLedger()
	guideID := uuid.New()
	booking := pendingBooking(guideID)
	booking.BookingStatus = StatusConfirmed
	booking.GuideEarnings = 120
	store.bookings[booking.ID] = booking

	if _, err := completeTourSystem(store, booking.ID); err != nil {
		t.Fatalf("completeTourSystem() error = %v", err)
	}
	if _, err := completeTourSystem(store, booking.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("second sweep run = %v, want ErrInvalidStateTransition", err)
	}
	if store.credits[guideID] != 1 || store.earned[guideID] != 120 {
		t.Errorf("overlapping sweep runs credited %d times for %.2f, want once for 120.00", store.credits[guideID], store.earned[guideID])
	}
}

func TestRejectionReassignsAndIgnoresRedelivery(t *testing.T) {
	store := newMemLedger()
	first := approvedGuide("English")
	second := approvedGuide("English")
	store.guides = []models.Guide{first, second}

	booking := pendingBooking(first.UserID)
	store.bookings[booking.ID] = booking

	updated, err := handleGuideRejection(store, booking.ID, first.UserID, testRng())
	if err != nil {
		t.Fatalf("handleGuideRejection() error = %v", err)
	}
	if updated.GuideID == nil || *updated.GuideID != second.UserID {
		t.Fatalf("expected reassignment to the other guide, got %v", updated.GuideID)
	}
	if updated.OriginalGuideID == nil || *updated.OriginalGuideID != first.UserID {
		t.Errorf("original guide = %v, want %s", updated.OriginalGuideID, first.UserID)
	}
	activities := len(store.activities)

	// Redelivering the same rejection: the guard no longer matches, nothing
	// moves, no duplicate activity.
	if _, err := handleGuideRejection(store, booking.ID, first.UserID, testRng()); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("redelivered rejection = %v, want ErrInvalidStateTransition", err)
	}
	if *store.bookings[booking.ID].GuideID != second.UserID {
		t.Error("redelivered rejection must not change the assigned guide")
	}
	if len(store.activities) != activities {
		t.Errorf("redelivered rejection appended %d extra activities", len(store.activities)-activities)
	}
}

func TestOriginalGuideSurvivesCascades(t *testing.T) {
	store := newMemLedger()
	a := approvedGuide("English")
	b := approvedGuide("English")
	c := approvedGuide("English")
	store.guides = []models.Guide{a, b, c}

	booking := pendingBooking(a.UserID)
	store.bookings[booking.ID] = booking

	afterFirst, err := handleGuideRejection(store, booking.ID, a.UserID, testRng())
	if err != nil {
		t.Fatalf("first rejection error = %v", err)
	}
	secondGuide := *afterFirst.GuideID

	afterSecond, err := handleGuideRejection(store, booking.ID, secondGuide, testRng())
	if err != nil {
		t.Fatalf("second rejection error = %v", err)
	}
	if afterSecond.OriginalGuideID == nil || *afterSecond.OriginalGuideID != a.UserID {
		t.Errorf("original guide = %v, want the first rejecting guide %s", afterSecond.OriginalGuideID, a.UserID)
	}
	if *store.bookings[booking.ID].OriginalGuideID != a.UserID {
		t.Error("stored booking lost the first rejecting guide across cascades")
	}
}

func TestRejectionExhaustionCancelsAndFlagsRefund(t *testing.T) {
	store := newMemLedger()
	only := approvedGuide("English")
	store.guides = []models.Guide{only}

	booking := pendingBooking(only.UserID)
	store.bookings[booking.ID] = booking
	bookingID := booking.ID
	store.payments[bookingID] = &models.Payment{BookingID: &bookingID, Status: "succeeded"}

	updated, err := handleGuideRejection(store, bookingID, only.UserID, testRng())
	if err != nil {
		t.Fatalf("handleGuideRejection() error = %v", err)
	}
	if updated.BookingStatus != StatusCancelled {
		t.Errorf("booking status = %q, want %q", updated.BookingStatus, StatusCancelled)
	}
	if store.bookings[bookingID].PaymentStatus != "paid" {
		t.Errorf("payment status = %q; the captured payment must stay paid, refunds live on the payment row", store.bookings[bookingID].PaymentStatus)
	}
	p := store.payments[bookingID]
	if p.RefundStatus == nil || *p.RefundStatus != "pending" {
		t.Errorf("payment refund status = %v, want pending", p.RefundStatus)
	}
	if store.credits[only.UserID] != 0 {
		t.Error("a cancelled booking must never credit earnings")
	}
}
