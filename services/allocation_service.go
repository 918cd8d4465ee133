package services

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StatusPendingGuideConfirmation = "pending_guide_confirmation"
	StatusConfirmed                = "confirmed"
	StatusCancelled                = "cancelled"
	StatusCompleted                = "completed"

	GuideStatusPending              = "pending"
	GuideStatusApproved             = "approved"
	GuideStatusRejected             = "rejected"
	GuideStatusScheduledForDeletion = "scheduled_for_deletion"
)

// activeStatuses are the booking states that make a guide busy for a date range.
var activeStatuses = []string{StatusConfirmed, StatusPendingGuideConfirmation}

// GuideDirectory is the read surface the allocation engine needs. The GORM
// implementation locks guide rows so check-then-reserve is atomic with respect
// to concurrent allocations; test fakes serve slices from memory.
type GuideDirectory interface {
	EligibleGuides() ([]models.Guide, error)
	ActiveBookingsOverlapping(checkIn, checkOut time.Time) ([]models.Booking, error)
}

type gormGuideDirectory struct {
	tx *gorm.DB
}

func (d gormGuideDirectory) EligibleGuides() ([]models.Guide, error) {
	var guides []models.Guide
	err := d.tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND is_available = ?", GuideStatusApproved, true).
		Find(&guides).Error
	return guides, err
}

func (d gormGuideDirectory) ActiveBookingsOverlapping(checkIn, checkOut time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.tx.
		Where("booking_status IN ? AND check_in < ? AND check_out > ?", activeStatuses, checkOut, checkIn).
		Find(&bookings).Error
	return bookings, err
}

// NewRng returns a time-seeded source for uniform candidate sampling. Tests
// construct their own with a fixed seed.
func NewRng() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Overlaps implements half-open interval semantics: [aStart, aEnd) and
// [bStart, bEnd) overlap iff aStart < bEnd && aEnd > bStart. Back-to-back
// bookings (checkout day == next check-in day) do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// BusyGuideIDs returns the guides committed to a booking in an active state
// whose dates overlap the query range. Cancelled and completed bookings never
// block.
func BusyGuideIDs(bookings []models.Booking, checkIn, checkOut time.Time) map[uuid.UUID]struct{} {
	busy := make(map[uuid.UUID]struct{})
	for _, b := range bookings {
		if b.GuideID == nil {
			continue
		}
		if b.BookingStatus != StatusConfirmed && b.BookingStatus != StatusPendingGuideConfirmation {
			continue
		}
		if Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			busy[*b.GuideID] = struct{}{}
		}
	}
	return busy
}

// NormalizeLanguages trims and lowercases the requested tokens, dropping empties.
func NormalizeLanguages(languages []string) []string {
	var tokens []string
	for _, l := range languages {
		tok := strings.ToLower(strings.TrimSpace(l))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// SplitLanguages turns the comma-separated form stored on a booking back into
// normalized tokens.
func SplitLanguages(stored string) []string {
	return NormalizeLanguages(strings.Split(stored, ","))
}

func guideSpeaks(g models.Guide, requested []string) bool {
	for _, spoken := range g.LanguageTokens() {
		for _, want := range requested {
			if strings.Contains(spoken, want) {
				return true
			}
		}
	}
	return false
}

// SelectGuide picks an allocation candidate uniformly at random among the
// eligible guides matching the requested languages, falling back to
// English-speaking guides when no language matches. An empty language list
// makes every eligible guide a candidate (no English restriction). Returns
// false when no candidate exists.
func SelectGuide(guides []models.Guide, languages []string, excluded, busy map[uuid.UUID]struct{}, rng *rand.Rand) (uuid.UUID, bool) {
	var eligible []models.Guide
	for _, g := range guides {
		if g.Status != GuideStatusApproved || !g.IsAvailable {
			continue
		}
		if _, skip := excluded[g.UserID]; skip {
			continue
		}
		if _, skip := busy[g.UserID]; skip {
			continue
		}
		eligible = append(eligible, g)
	}
	if len(eligible) == 0 {
		return uuid.Nil, false
	}

	tokens := NormalizeLanguages(languages)
	if len(tokens) == 0 {
		return eligible[rng.Intn(len(eligible))].UserID, true
	}

	var matched []models.Guide
	for _, g := range eligible {
		if guideSpeaks(g, tokens) {
			matched = append(matched, g)
		}
	}
	if len(matched) > 0 {
		return matched[rng.Intn(len(matched))].UserID, true
	}

	var english []models.Guide
	for _, g := range eligible {
		if guideSpeaks(g, []string{"english"}) {
			english = append(english, g)
		}
	}
	if len(english) > 0 {
		return english[rng.Intn(len(english))].UserID, true
	}

	return uuid.Nil, false
}

// AllocateGuide runs the conflict index and candidate selector against a
// directory and returns the chosen guide, or ErrAllocationExhausted.
func AllocateGuide(dir GuideDirectory, checkIn, checkOut time.Time, languages []string, excluded []uuid.UUID, rng *rand.Rand) (*models.Guide, error) {
	guides, err := dir.EligibleGuides()
	if err != nil {
		return nil, err
	}

	active, err := dir.ActiveBookingsOverlapping(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	busy := BusyGuideIDs(active, checkIn, checkOut)

	excludedSet := make(map[uuid.UUID]struct{}, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = struct{}{}
	}

	chosen, ok := SelectGuide(guides, languages, excludedSet, busy, rng)
	if !ok {
		return nil, ErrAllocationExhausted
	}

	for i := range guides {
		if guides[i].UserID == chosen {
			return &guides[i], nil
		}
	}
	return nil, ErrAllocationExhausted
}

// AllocateGuideTx is the transactional entry point used at booking creation
// and during reassignment. It must run inside the same transaction that
// writes the booking row, so the FOR UPDATE guide locks cover the insert.
func AllocateGuideTx(tx *gorm.DB, checkIn, checkOut time.Time, languages []string, excluded []uuid.UUID, rng *rand.Rand) (*models.Guide, error) {
	guide, err := AllocateGuide(gormGuideDirectory{tx: tx}, checkIn, checkOut, languages, excluded, rng)
	if err != nil && !errors.Is(err, ErrAllocationExhausted) {
		return nil, err
	}
	return guide, err
}
