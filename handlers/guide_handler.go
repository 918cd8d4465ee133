package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/database"
	"github.com/wanderpal/tour_guide/models"
	"github.com/wanderpal/tour_guide/notifications"
	"github.com/wanderpal/tour_guide/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// guideDeletionGracePeriod is how long a guide can change their mind before
// the deletion sweep finalizes the account.
const guideDeletionGracePeriod = 30 * 24 * time.Hour

type GuideApplicationRequest struct {
	Headline    string   `json:"headline" validate:"required,min=10,max=255"`
	Bio         string   `json:"bio" validate:"required,min=50"`
	Languages   []string `json:"languages" validate:"required,min=1,dive,required"`
	PricePerDay float64  `json:"price_per_day" validate:"required,gt=0"`
}

func currentUserID(c *fiber.Ctx) uuid.UUID {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	id, _ := uuid.Parse(claims["user_id"].(string))
	return id
}

func ApplyToBeAGuide(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req GuideApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.Guide
	if err := database.DB.First(&existing, "user_id = ?", userID).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already applied to be a guide"})
	}

	guide := models.Guide{
		UserID:      userID,
		Headline:    &req.Headline,
		Bio:         &req.Bio,
		Languages:   strings.Join(services.NormalizeLanguages(req.Languages), ","),
		Status:      services.GuideStatusPending,
		IsAvailable: true,
		PricePerDay: req.PricePerDay,
	}
	if err := database.DB.Create(&guide).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit application"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Application submitted. An admin will review it shortly.", "guide": guide})
}

func UpdateAvailability(c *fiber.Ctx) error {
	userID := currentUserID(c)

	type Request struct {
		IsAvailable *bool `json:"is_available" validate:"required"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.IsAvailable == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "is_available is required"})
	}

	result := database.DB.Model(&models.Guide{}).
		Where("user_id = ? AND status = ?", userID, services.GuideStatusApproved).
		Update("is_available", *req.IsAvailable)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update availability"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guide profile not found or not approved"})
	}

	return c.JSON(fiber.Map{"message": "Availability updated", "is_available": *req.IsAvailable})
}

func UpdateLanguages(c *fiber.Ctx) error {
	userID := currentUserID(c)

	type Request struct {
		Languages []string `json:"languages" validate:"required,min=1,dive,required"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	languages := strings.Join(services.NormalizeLanguages(req.Languages), ",")
	if languages == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least one language is required"})
	}

	result := database.DB.Model(&models.Guide{}).
		Where("user_id = ?", userID).
		Update("languages", languages)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guide profile not found"})
	}

	return c.JSON(fiber.Map{"message": "Languages updated", "languages": languages})
}

func GetMyAssignments(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Preload("Tourist").
		Preload("Destination").
		Where("guide_id = ?", userID).
		Order("check_in asc").
		Find(&bookings)

	return c.JSON(bookings)
}

// AcceptBooking moves a pending assignment to confirmed. The conditional
// transition write means a stale accept (already rejected and reassigned, or
// cancelled) fails cleanly instead of resurrecting the booking.
func AcceptBooking(c *fiber.Ctx) error {
	guideID := currentUserID(c)
	bookingID := c.Params("bookingId")

	var booking models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Tourist").First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.GuideID == nil || *booking.GuideID != guideID {
			return errors.New("this booking is not assigned to you")
		}
		return services.TransitionBooking(tx, &booking, services.StatusConfirmed, nil,
			services.ActivityTourConfirmed, "Guide accepted the assignment. Tour confirmed.")
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidStateTransition) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This booking can no longer be accepted"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var guideUser models.User
	database.DB.First(&guideUser, "id = ?", guideID)

	notifications.Dispatch(notifications.BookingEvent{
		Type:           notifications.EventBookingConfirmed,
		BookingID:      booking.ID,
		RecipientRole:  "tourist",
		RecipientName:  booking.Tourist.FullName,
		RecipientEmail: booking.Tourist.Email,
		Payload: map[string]string{
			"guide_name": guideUser.FullName,
			"check_in":   booking.CheckIn.Format("2006-01-02"),
			"check_out":  booking.CheckOut.Format("2006-01-02"),
		},
	})

	return c.JSON(fiber.Map{"message": "Booking confirmed", "booking": booking})
}

// RejectBooking hands the assignment back and triggers reassignment: another
// guide is drafted when one exists, otherwise the booking is cancelled and the
// payment flagged for refund.
func RejectBooking(c *fiber.Ctx) error {
	guideID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := services.HandleGuideRejection(database.DB, bookingID, guideID, services.NewRng())
	if err != nil {
		if errors.Is(err, services.ErrInvalidStateTransition) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This booking can no longer be rejected"})
		}
		log.Printf("🔥 Rejection handling failed for booking %s: %v", bookingID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Assignment declined", "booking_status": booking.BookingStatus})
}

type CompleteTourRequest struct {
	Pin string `json:"pin" validate:"required,len=6,numeric"`
}

// CompleteTour settles a confirmed tour with the PIN the tourist hands over in
// person. Earnings are credited atomically with the status change.
func CompleteTour(c *fiber.Ctx) error {
	guideID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req CompleteTourRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var owned models.Booking
	if err := database.DB.First(&owned, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if owned.GuideID == nil || *owned.GuideID != guideID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This booking is not assigned to you"})
	}

	if _, err := services.CompleteTour(database.DB, bookingID, req.Pin); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStateTransition):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only a confirmed tour can be completed"})
		case errors.Is(err, services.ErrInvalidPin):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Incorrect completion PIN"})
		default:
			log.Printf("🔥 Tour completion failed for booking %s: %v", bookingID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete tour"})
		}
	}

	var booking models.Booking
	if err := database.DB.
		Preload("Tourist").
		Preload("Destination").
		Preload("Guide.User").
		First(&booking, "id = ?", bookingID).Error; err == nil {
		notifications.Dispatch(notifications.BookingEvent{
			Type:           notifications.EventTourCompleted,
			BookingID:      booking.ID,
			RecipientRole:  "tourist",
			RecipientName:  booking.Tourist.FullName,
			RecipientEmail: booking.Tourist.Email,
			Payload:        map[string]string{"destination": booking.Destination.Name},
		})
		go services.GenerateCompletionReceipt(booking)
	}

	return c.JSON(fiber.Map{"message": "Tour completed. Earnings have been credited to your account."})
}

func GetMyEarnings(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var guide models.Guide
	if err := database.DB.First(&guide, "user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guide profile not found"})
	}

	var payouts []models.PayoutRequest
	database.DB.Where("guide_id = ?", userID).Find(&payouts)

	return c.JSON(fiber.Map{
		"total_earnings":        guide.TotalEarnings,
		"completed_tours_count": guide.CompletedToursCount,
		"reserved_payouts":      services.ReservedPayoutAmount(payouts),
		"available_balance":     services.AvailableBalance(guide, payouts),
	})
}

type PayoutRequestBody struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func RequestPayout(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req PayoutRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payout models.PayoutRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var guide models.Guide
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&guide, "user_id = ?", userID).Error; err != nil {
			return errors.New("guide profile not found")
		}

		var payouts []models.PayoutRequest
		if err := tx.Where("guide_id = ?", userID).Find(&payouts).Error; err != nil {
			return err
		}

		available := services.AvailableBalance(guide, payouts)
		if req.Amount > available {
			return fmt.Errorf("requested amount exceeds available balance of %.2f", available)
		}

		payout = models.PayoutRequest{
			GuideID:     userID,
			Amount:      req.Amount,
			Status:      "pending",
			RequestedAt: time.Now(),
		}
		return tx.Create(&payout).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(payout)
}

func GetMyPayoutRequests(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var payouts []models.PayoutRequest
	database.DB.Where("guide_id = ?", userID).Order("requested_at desc").Find(&payouts)

	return c.JSON(payouts)
}

// RequestDeletion schedules the guide profile for removal after a grace
// period. The guide stops receiving new assignments immediately; existing
// bookings run their course.
func RequestDeletion(c *fiber.Ctx) error {
	userID := currentUserID(c)

	expiry := time.Now().Add(guideDeletionGracePeriod)
	result := database.DB.Model(&models.Guide{}).
		Where("user_id = ? AND status = ?", userID, services.GuideStatusApproved).
		Updates(map[string]interface{}{
			"status":              services.GuideStatusScheduledForDeletion,
			"is_available":        false,
			"deletion_expired_at": expiry,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule deletion"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guide profile not found or not in a deletable state"})
	}

	return c.JSON(fiber.Map{
		"message":    "Your guide profile is scheduled for deletion. You can cancel anytime before the deadline.",
		"expires_at": expiry,
	})
}

func CancelDeletion(c *fiber.Ctx) error {
	userID := currentUserID(c)

	result := database.DB.Model(&models.Guide{}).
		Where("user_id = ? AND status = ?", userID, services.GuideStatusScheduledForDeletion).
		Updates(map[string]interface{}{
			"status":              services.GuideStatusApproved,
			"is_available":        true,
			"deletion_expired_at": nil,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel deletion"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No pending deletion found"})
	}

	return c.JSON(fiber.Map{"message": "Deletion cancelled. Welcome back!"})
}

// ListGuides is the public directory of approved guides.
func ListGuides(c *fiber.Ctx) error {
	query := database.DB.Preload("User").Where("status = ?", services.GuideStatusApproved)

	if lang := c.Query("language"); lang != "" {
		query = query.Where("lower(languages) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(lang))+"%")
	}

	var guides []models.Guide
	query.Order("avg_rating desc").Find(&guides)

	return c.JSON(guides)
}

func GetGuideProfile(c *fiber.Ctx) error {
	guideID := c.Params("guideId")

	var guide models.Guide
	if err := database.DB.Preload("User").First(&guide, "user_id = ? AND status = ?", guideID, services.GuideStatusApproved).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guide not found"})
	}

	var reviews []models.Review
	database.DB.Preload("Tourist").Where("guide_id = ?", guideID).Order("created_at desc").Limit(20).Find(&reviews)

	return c.JSON(fiber.Map{"guide": guide, "reviews": reviews})
}
