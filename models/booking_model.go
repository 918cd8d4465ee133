package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking statuses: pending_guide_confirmation, confirmed, cancelled, completed.
// Payment statuses: pending, paid, failed.
type Booking struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TouristID     uuid.UUID `gorm:"not null" json:"tourist_id"`
	DestinationID uuid.UUID `gorm:"not null" json:"destination_id"`

	// GuideID is NULL when allocation found no candidate at creation time; the
	// booking still exists because payment was already captured.
	GuideID         *uuid.UUID `json:"guide_id"`
	OriginalGuideID *uuid.UUID `json:"original_guide_id"`

	CheckIn  time.Time `gorm:"not null" json:"check_in"`
	CheckOut time.Time `gorm:"not null" json:"check_out"`

	// Comma-separated language tokens requested by the tourist at booking time.
	RequestedLanguages string `gorm:"type:text" json:"requested_languages"`

	TotalAmount   float64 `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	GuideEarnings float64 `gorm:"type:numeric(10,2);not null" json:"-"`
	Currency      string  `gorm:"size:3" json:"currency"`

	PaymentStatus string  `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	TransactionID *string `gorm:"size:255" json:"-"`

	BookingStatus string `gorm:"size:40;not null;default:'pending_guide_confirmation'" json:"booking_status"`

	// Generated once at creation, immutable, shared only with the tourist.
	CompletionPin string `gorm:"size:6;not null" json:"-"`

	DocumentURL      string `gorm:"size:255;not null" json:"document_url"`
	DocumentPublicID string `gorm:"size:255;not null" json:"-"`

	Tourist     User        `gorm:"foreignkey:TouristID" json:"tourist,omitempty"`
	Guide       *Guide      `gorm:"foreignkey:GuideID" json:"guide,omitempty"`
	Destination Destination `gorm:"foreignkey:DestinationID" json:"destination,omitempty"`

	Activities []BookingActivity `json:"activities,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether no further lifecycle transition is permitted.
func (b *Booking) IsTerminal() bool {
	return b.BookingStatus == "cancelled" || b.BookingStatus == "completed"
}
