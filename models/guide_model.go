package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Guide statuses: pending, approved, rejected, scheduled_for_deletion.
// Only approved guides with IsAvailable=true are allocation candidates.
type Guide struct {
	UserID   uuid.UUID `gorm:"primary_key" json:"user_id"`
	Headline *string   `gorm:"size:255" json:"headline"`
	Bio      *string   `gorm:"type:text" json:"bio"`

	// Comma-separated free-text tokens, e.g. "English, Swahili, French".
	Languages string `gorm:"type:text" json:"languages"`

	Status      string `gorm:"size:30;not null;default:'pending'" json:"status"`
	IsAvailable bool   `gorm:"not null;default:true" json:"is_available"`

	PricePerDay float64 `gorm:"type:numeric(10,2);default:0.00" json:"price_per_day"`
	AvgRating   float32 `gorm:"default:0" json:"avg_rating"`

	TotalEarnings       float64 `gorm:"type:numeric(10,2);default:0.00" json:"-"`
	CompletedToursCount int     `gorm:"default:0" json:"completed_tours_count"`

	ProfilePhotoURL      *string `gorm:"size:255" json:"profile_photo_url"`
	ProfilePhotoPublicID *string `gorm:"size:255" json:"-"`

	DeletionExpiredAt *time.Time `json:"-"`

	User User `gorm:"foreignkey:UserID" json:"user"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// LanguageTokens splits the free-text language list into trimmed lowercase tokens.
func (g *Guide) LanguageTokens() []string {
	var tokens []string
	for _, part := range strings.Split(g.Languages, ",") {
		tok := strings.ToLower(strings.TrimSpace(part))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
