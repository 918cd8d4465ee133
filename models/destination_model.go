package models

import (
	"time"

	"github.com/google/uuid"
)

type Destination struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:255;not null;unique" json:"name"`
	Location    string    `gorm:"size:255;not null" json:"location"`
	Description *string   `gorm:"type:text" json:"description"`
	PricePerDay float64   `gorm:"type:numeric(10,2);not null;default:0.00" json:"price_per_day"`
	Currency    string    `gorm:"size:3;not null;default:'USD'" json:"currency"`
	PhotoURL    *string   `gorm:"size:255" json:"photo_url"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
