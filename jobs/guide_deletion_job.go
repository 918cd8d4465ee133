package jobs

import (
	"context"
	"log"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/wanderpal/tour_guide/configs"
	"github.com/wanderpal/tour_guide/database"
	"github.com/wanderpal/tour_guide/models"
	"github.com/wanderpal/tour_guide/notifications"
	"github.com/wanderpal/tour_guide/services"
	"gorm.io/gorm"
)

const deactivatedBioMarker = "This guide account has been deactivated."

// FinalizeExpiredGuideDeletions archives guide profiles whose deletion grace
// period has elapsed. Profiles are archived in place rather than deleted so
// historical bookings stay resolvable.
func FinalizeExpiredGuideDeletions() {
	log.Println("Running job: FinalizeExpiredGuideDeletions...")

	var expired []models.Guide
	err := database.DB.
		Preload("User").
		Where("status = ? AND deletion_expired_at <= ?", services.GuideStatusScheduledForDeletion, time.Now()).
		Find(&expired).Error
	if err != nil {
		log.Printf("Error finding expired guide deletions: %v", err)
		return
	}

	if len(expired) == 0 {
		log.Println("No expired guide deletion requests found.")
		return
	}

	archived := 0
	for _, guide := range expired {
		photoPublicID := guide.ProfilePhotoPublicID

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			// Revoke the elevated role back to the base account type.
			if err := tx.Model(&models.User{}).
				Where("id = ?", guide.UserID).
				Update("role", "tourist").Error; err != nil {
				return err
			}

			// Archive, don't delete: bookings keep their guide reference.
			return tx.Model(&models.Guide{}).
				Where("user_id = ? AND status = ?", guide.UserID, services.GuideStatusScheduledForDeletion).
				Updates(map[string]interface{}{
					"status":                  services.GuideStatusRejected,
					"is_available":            false,
					"bio":                     deactivatedBioMarker,
					"profile_photo_url":       nil,
					"profile_photo_public_id": nil,
					"deletion_expired_at":     nil,
				}).Error
		})
		if err != nil {
			log.Printf("Error archiving guide %s: %v", guide.UserID, err)
			continue
		}
		archived++

		if photoPublicID != nil && *photoPublicID != "" {
			go destroyProfilePhoto(*photoPublicID)
		}

		notifications.Dispatch(notifications.BookingEvent{
			Type:           notifications.EventGuideDeletionFinalized,
			RecipientRole:  "guide",
			RecipientName:  guide.User.FullName,
			RecipientEmail: guide.User.Email,
		})
	}

	log.Printf("Archived %d of %d guide profile(s) scheduled for deletion.", archived, len(expired))
}

// destroyProfilePhoto is best-effort: a leftover photo in external storage is
// acceptable, a blocked sweep is not.
func destroyProfilePhoto(publicID string) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		log.Printf("Error initializing Cloudinary for photo cleanup: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		log.Printf("Error deleting profile photo %s: %v", publicID, err)
	}
}
