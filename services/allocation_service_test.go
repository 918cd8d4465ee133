package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/models"
)

func day(d int) time.Time {
	return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
}

func approvedGuide(languages string) models.Guide {
	return models.Guide{
		UserID:      uuid.New(),
		Languages:   languages,
		Status:      GuideStatusApproved,
		IsAvailable: true,
	}
}

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical ranges", day(1), day(5), day(1), day(5), true},
		{"partial overlap", day(1), day(5), day(4), day(8), true},
		{"contained", day(2), day(3), day(1), day(5), true},
		{"back to back does not conflict", day(1), day(5), day(5), day(8), false},
		{"back to back reversed", day(5), day(8), day(1), day(5), false},
		{"disjoint", day(1), day(3), day(6), day(8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBusyGuideIDs(t *testing.T) {
	busyGuide := uuid.New()
	cancelledGuide := uuid.New()
	completedGuide := uuid.New()
	outsideGuide := uuid.New()

	bookings := []models.Booking{
		{GuideID: &busyGuide, BookingStatus: StatusConfirmed, CheckIn: day(1), CheckOut: day(5)},
		{GuideID: &cancelledGuide, BookingStatus: StatusCancelled, CheckIn: day(1), CheckOut: day(5)},
		{GuideID: &completedGuide, BookingStatus: StatusCompleted, CheckIn: day(1), CheckOut: day(5)},
		{GuideID: &outsideGuide, BookingStatus: StatusConfirmed, CheckIn: day(10), CheckOut: day(12)},
		{GuideID: nil, BookingStatus: StatusPendingGuideConfirmation, CheckIn: day(1), CheckOut: day(5)},
	}

	busy := BusyGuideIDs(bookings, day(3), day(7))

	if _, ok := busy[busyGuide]; !ok {
		t.Error("confirmed overlapping guide should be busy")
	}
	if _, ok := busy[cancelledGuide]; ok {
		t.Error("cancelled booking should not make a guide busy")
	}
	if _, ok := busy[completedGuide]; ok {
		t.Error("completed booking should not make a guide busy")
	}
	if _, ok := busy[outsideGuide]; ok {
		t.Error("non-overlapping booking should not make a guide busy")
	}
}

func TestBusyGuideIDsPendingBlocks(t *testing.T) {
	pendingGuide := uuid.New()
	bookings := []models.Booking{
		{GuideID: &pendingGuide, BookingStatus: StatusPendingGuideConfirmation, CheckIn: day(1), CheckOut: day(5)},
	}
	busy := BusyGuideIDs(bookings, day(2), day(4))
	if _, ok := busy[pendingGuide]; !ok {
		t.Error("a pending assignment should block the guide's dates")
	}
}

func TestSelectGuideLanguageMatch(t *testing.T) {
	french := approvedGuide("French, English")
	swahili := approvedGuide("Swahili")

	chosen, ok := SelectGuide([]models.Guide{french, swahili}, []string{"french"}, nil, nil, testRng())
	if !ok {
		t.Fatal("expected a guide to be selected")
	}
	if chosen != french.UserID {
		t.Errorf("expected the French-speaking guide, got %s", chosen)
	}
}

func TestSelectGuideEnglishFallback(t *testing.T) {
	english := approvedGuide("English")
	swahili := approvedGuide("Swahili")

	// Nobody speaks Japanese; the English speaker takes it.
	chosen, ok := SelectGuide([]models.Guide{english, swahili}, []string{"japanese"}, nil, nil, testRng())
	if !ok {
		t.Fatal("expected fallback to an English-speaking guide")
	}
	if chosen != english.UserID {
		t.Errorf("expected the English-speaking guide, got %s", chosen)
	}
}

func TestSelectGuideNoCandidate(t *testing.T) {
	swahili := approvedGuide("Swahili")

	if _, ok := SelectGuide([]models.Guide{swahili}, []string{"japanese"}, nil, nil, testRng()); ok {
		t.Error("expected no candidate when nobody speaks the language or English")
	}
}

func TestSelectGuideEmptyLanguagesTakesAnyone(t *testing.T) {
	swahili := approvedGuide("Swahili")

	chosen, ok := SelectGuide([]models.Guide{swahili}, nil, nil, nil, testRng())
	if !ok {
		t.Fatal("expected any eligible guide when no language was requested")
	}
	if chosen != swahili.UserID {
		t.Errorf("expected the only guide, got %s", chosen)
	}
}

func TestSelectGuideSkipsBusyAndExcluded(t *testing.T) {
	a := approvedGuide("English")
	b := approvedGuide("English")
	c := approvedGuide("English")

	busy := map[uuid.UUID]struct{}{a.UserID: {}}
	excluded := map[uuid.UUID]struct{}{b.UserID: {}}

	chosen, ok := SelectGuide([]models.Guide{a, b, c}, []string{"english"}, excluded, busy, testRng())
	if !ok {
		t.Fatal("expected the remaining guide to be selected")
	}
	if chosen != c.UserID {
		t.Errorf("busy and excluded guides must be skipped, got %s", chosen)
	}
}

func TestSelectGuideSkipsUnavailableAndUnapproved(t *testing.T) {
	unavailable := approvedGuide("English")
	unavailable.IsAvailable = false
	pending := approvedGuide("English")
	pending.Status = GuideStatusPending
	scheduled := approvedGuide("English")
	scheduled.Status = GuideStatusScheduledForDeletion

	if _, ok := SelectGuide([]models.Guide{unavailable, pending, scheduled}, []string{"english"}, nil, nil, testRng()); ok {
		t.Error("unavailable or unapproved guides must never be selected")
	}
}

func TestSelectGuideSubstringLanguageMatch(t *testing.T) {
	g := approvedGuide("English (fluent), Kiswahili")

	chosen, ok := SelectGuide([]models.Guide{g}, []string{"swahili"}, nil, nil, testRng())
	if !ok || chosen != g.UserID {
		t.Error("requested token should match by substring against spoken tokens")
	}
}

func TestSelectGuideDeterministicWithSeed(t *testing.T) {
	guides := []models.Guide{
		approvedGuide("English"),
		approvedGuide("English"),
		approvedGuide("English"),
	}

	first, _ := SelectGuide(guides, []string{"english"}, nil, nil, rand.New(rand.NewSource(7)))
	second, _ := SelectGuide(guides, []string{"english"}, nil, nil, rand.New(rand.NewSource(7)))
	if first != second {
		t.Error("same seed must produce the same selection")
	}
}

func TestSelectGuideSpreadsLoad(t *testing.T) {
	guides := []models.Guide{
		approvedGuide("English"),
		approvedGuide("English"),
	}

	rng := testRng()
	seen := make(map[uuid.UUID]int)
	for i := 0; i < 200; i++ {
		chosen, ok := SelectGuide(guides, []string{"english"}, nil, nil, rng)
		if !ok {
			t.Fatal("expected a selection")
		}
		seen[chosen]++
	}
	for _, g := range guides {
		if seen[g.UserID] == 0 {
			t.Errorf("guide %s was never selected across 200 draws", g.UserID)
		}
	}
}

type fakeDirectory struct {
	guides   []models.Guide
	bookings []models.Booking
}

func (f fakeDirectory) EligibleGuides() ([]models.Guide, error) {
	return f.guides, nil
}

func (f fakeDirectory) ActiveBookingsOverlapping(checkIn, checkOut time.Time) ([]models.Booking, error) {
	return f.bookings, nil
}

func TestAllocateGuideExcludesConflicts(t *testing.T) {
	free := approvedGuide("English")
	booked := approvedGuide("English")

	dir := fakeDirectory{
		guides: []models.Guide{free, booked},
		bookings: []models.Booking{
			{GuideID: &booked.UserID, BookingStatus: StatusConfirmed, CheckIn: day(1), CheckOut: day(5)},
		},
	}

	guide, err := AllocateGuide(dir, day(3), day(7), []string{"english"}, nil, testRng())
	if err != nil {
		t.Fatalf("AllocateGuide() error = %v", err)
	}
	if guide.UserID != free.UserID {
		t.Errorf("expected the conflict-free guide, got %s", guide.UserID)
	}
}

func TestAllocateGuideExhausted(t *testing.T) {
	only := approvedGuide("English")
	dir := fakeDirectory{
		guides: []models.Guide{only},
		bookings: []models.Booking{
			{GuideID: &only.UserID, BookingStatus: StatusPendingGuideConfirmation, CheckIn: day(1), CheckOut: day(5)},
		},
	}

	if _, err := AllocateGuide(dir, day(2), day(4), nil, nil, testRng()); err != ErrAllocationExhausted {
		t.Errorf("expected ErrAllocationExhausted, got %v", err)
	}
}

func TestAllocateGuideHonorsExclusionList(t *testing.T) {
	rejecter := approvedGuide("English")
	dir := fakeDirectory{guides: []models.Guide{rejecter}}

	_, err := AllocateGuide(dir, day(1), day(3), nil, []uuid.UUID{rejecter.UserID}, testRng())
	if err != ErrAllocationExhausted {
		t.Errorf("an excluded guide must not be reallocated, got %v", err)
	}
}

func TestNormalizeLanguages(t *testing.T) {
	got := NormalizeLanguages([]string{" French ", "ENGLISH", "", "  "})
	want := []string{"french", "english"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeLanguages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitLanguages(t *testing.T) {
	got := SplitLanguages("English, Swahili ,french")
	want := []string{"english", "swahili", "french"}
	if len(got) != len(want) {
		t.Fatalf("SplitLanguages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
