package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingActivity rows are append-only. They are never updated or deleted;
// read paths may order by created_at for display.
type BookingActivity struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID uuid.UUID `gorm:"not null;index" json:"booking_id"`
	Type      string    `gorm:"size:40;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`

	CreatedAt time.Time `json:"created_at"`
}
