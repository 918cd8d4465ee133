package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingID uuid.UUID `gorm:"not null;unique"`
	TouristID uuid.UUID `gorm:"not null"`
	GuideID   uuid.UUID `gorm:"not null"`
	Rating    int       `gorm:"not null"`
	Comment   string    `gorm:"type:text"`

	Booking Booking `gorm:"foreignkey:BookingID"`
	Tourist User    `gorm:"foreignkey:TouristID"`
	Guide   User    `gorm:"foreignkey:GuideID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
