package jobs

import (
	"log"
	"time"

	"github.com/wanderpal/tour_guide/database"
	"github.com/wanderpal/tour_guide/models"
	"github.com/wanderpal/tour_guide/notifications"
	"github.com/wanderpal/tour_guide/services"
)

// AutoCompleteOverdueTours settles confirmed bookings whose checkout passed
// the grace window without a PIN completion. The crediting contract is the
// same as the manual path; the conditional status write inside
// CompleteTourSystem makes overlapping sweep runs credit at most once.
func AutoCompleteOverdueTours() {
	log.Println("Running job: AutoCompleteOverdueTours...")

	cutoff := time.Now().Add(-services.CompletionGracePeriod)

	var overdue []models.Booking
	err := database.DB.
		Where("booking_status = ? AND check_out <= ?", services.StatusConfirmed, cutoff).
		Find(&overdue).Error
	if err != nil {
		log.Printf("Error finding overdue bookings: %v", err)
		return
	}

	if len(overdue) == 0 {
		log.Println("No overdue confirmed bookings found.")
		return
	}

	completed := 0
	for _, b := range overdue {
		settled, err := services.CompleteTourSystem(database.DB, b.ID)
		if err != nil {
			// One bad record must not abort the batch.
			log.Printf("Error auto-completing booking %s: %v", b.ID, err)
			continue
		}
		completed++

		var tourist models.User
		if err := database.DB.First(&tourist, "id = ?", settled.TouristID).Error; err == nil {
			notifications.Dispatch(notifications.BookingEvent{
				Type:           notifications.EventTourAutoCompleted,
				BookingID:      settled.ID,
				RecipientRole:  "tourist",
				RecipientName:  tourist.FullName,
				RecipientEmail: tourist.Email,
			})
		}
	}

	log.Printf("Auto-completed %d of %d overdue booking(s).", completed, len(overdue))
}
