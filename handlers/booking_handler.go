package handlers

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/wanderpal/tour_guide/configs"
	"github.com/wanderpal/tour_guide/database"
	"github.com/wanderpal/tour_guide/models"
	"github.com/wanderpal/tour_guide/notifications"
	"github.com/wanderpal/tour_guide/payments"
	"github.com/wanderpal/tour_guide/services"
	"github.com/wanderpal/tour_guide/utils"
	"gorm.io/gorm"
)

type BookingQuoteRequest struct {
	DestinationID string `json:"destination_id" validate:"required,uuid"`
	CheckIn       string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut      string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

type CreateBookingRequest struct {
	DestinationID    string   `json:"destination_id" validate:"required,uuid"`
	CheckIn          string   `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut         string   `json:"check_out" validate:"required,datetime=2006-01-02"`
	Languages        []string `json:"languages,omitempty"`
	OrderID          string   `json:"order_id" validate:"required"`
	PaymentID        string   `json:"payment_id" validate:"required"`
	PaymentSignature string   `json:"payment_signature" validate:"required"`
	DocumentURL      string   `json:"document_url" validate:"required,url"`
	DocumentPublicID string   `json:"document_public_id" validate:"required"`
}

func tourPrice(destination models.Destination, checkIn, checkOut time.Time) float64 {
	days := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return destination.PricePerDay * float64(days)
}

func parseStayDates(checkInStr, checkOutStr string) (time.Time, time.Time, error) {
	checkIn, err := time.Parse("2006-01-02", checkInStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid check-in date")
	}
	checkOut, err := time.Parse("2006-01-02", checkOutStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid check-out date")
	}
	if !checkIn.Before(checkOut) {
		return time.Time{}, time.Time{}, errors.New("check-in must be before check-out")
	}
	return checkIn, checkOut, nil
}

// CreateBookingOrder registers a payment order with the gateway so the
// frontend can open checkout. No booking exists until the payment callback is
// verified in CreateBooking.
func CreateBookingOrder(c *fiber.Ctx) error {
	var req BookingQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var destination models.Destination
	if err := database.DB.First(&destination, "id = ? AND is_active = ?", req.DestinationID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Destination not found"})
	}

	amount := tourPrice(destination, checkIn, checkOut)

	order, err := payments.CreateOrder(amount, destination.Currency, fmt.Sprintf("dest-%s", destination.ID))
	if err != nil {
		log.Printf("🔥 Payment order creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_id": order.ID,
		"amount":   amount,
		"currency": destination.Currency,
	})
}

// CreateBooking turns a verified payment into a booking and runs guide
// allocation. A signature mismatch aborts before anything is persisted. When
// allocation finds nobody the booking is still created with no guide (payment
// has already been captured) and operations is alerted for manual follow-up.
func CreateBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	touristID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Payment integrity comes first: a forged callback never reaches
	// allocation and never leaves a record behind.
	if !payments.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.PaymentSignature) {
		log.Printf("🔥 Payment signature mismatch for order %s", req.OrderID)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed"})
	}

	var destination models.Destination
	if err := database.DB.First(&destination, "id = ? AND is_active = ?", req.DestinationID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Destination not found"})
	}

	pin, err := utils.GenerateCompletionPin()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create booking"})
	}

	totalAmount := tourPrice(destination, checkIn, checkOut)
	commissionRate, _ := strconv.ParseFloat(config.Config("PLATFORM_COMMISSION_RATE"), 64)
	guideEarnings := totalAmount * (1 - commissionRate)

	var booking models.Booking
	var assignedGuide *models.Guide
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		guide, allocErr := services.AllocateGuideTx(tx, checkIn, checkOut, services.NormalizeLanguages(req.Languages), nil, services.NewRng())
		if allocErr != nil && !errors.Is(allocErr, services.ErrAllocationExhausted) {
			return allocErr
		}

		paymentID := req.PaymentID
		booking = models.Booking{
			TouristID:          touristID,
			DestinationID:      destination.ID,
			CheckIn:            checkIn,
			CheckOut:           checkOut,
			RequestedLanguages: strings.Join(services.NormalizeLanguages(req.Languages), ","),
			TotalAmount:        totalAmount,
			GuideEarnings:      guideEarnings,
			Currency:           destination.Currency,
			PaymentStatus:      "paid",
			TransactionID:      &paymentID,
			BookingStatus:      services.StatusPendingGuideConfirmation,
			CompletionPin:      pin,
			DocumentURL:        req.DocumentURL,
			DocumentPublicID:   req.DocumentPublicID,
		}
		if guide != nil {
			booking.GuideID = &guide.UserID
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		orderID := req.OrderID
		payment := models.Payment{
			BookingID:       &booking.ID,
			ProviderOrderID: &orderID,
			ProviderTxnID:   &paymentID,
			Amount:          totalAmount,
			Currency:        destination.Currency,
			Provider:        "razorpay",
			Status:          "succeeded",
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if err := services.AppendActivity(tx, booking.ID, services.ActivityBookingCreated,
			fmt.Sprintf("Booking created for %s, %s to %s. Payment %s verified.",
				destination.Name, req.CheckIn, req.CheckOut, paymentID)); err != nil {
			return err
		}

		if guide != nil {
			assignedGuide = guide
			return services.AppendActivity(tx, booking.ID, services.ActivityGuideAssigned,
				fmt.Sprintf("Guide %s assigned automatically.", guide.UserID))
		}
		return services.AppendActivity(tx, booking.ID, services.ActivityAllocationFailed,
			"No eligible guide available; booking awaits manual assignment.")
	})
	if err != nil {
		log.Printf("🔥 Failed to create booking: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create booking"})
	}

	var tourist models.User
	database.DB.First(&tourist, "id = ?", touristID)

	// The PIN email goes out regardless of allocation outcome: payment is
	// captured and the booking exists, and the PIN is the only way to close
	// it, even if a guide is assigned manually later.
	notifications.Dispatch(notifications.BookingEvent{
		Type:           notifications.EventBookingCreated,
		BookingID:      booking.ID,
		RecipientRole:  "tourist",
		RecipientName:  tourist.FullName,
		RecipientEmail: tourist.Email,
		Payload: map[string]string{
			"check_in":       req.CheckIn,
			"check_out":      req.CheckOut,
			"completion_pin": pin,
		},
	})

	if assignedGuide != nil {
		var guideUser models.User
		if err := database.DB.First(&guideUser, "id = ?", assignedGuide.UserID).Error; err == nil {
			notifications.Dispatch(notifications.BookingEvent{
				Type:           notifications.EventGuideAssigned,
				BookingID:      booking.ID,
				RecipientRole:  "guide",
				RecipientName:  guideUser.FullName,
				RecipientEmail: guideUser.Email,
				Payload:        map[string]string{"check_in": req.CheckIn, "check_out": req.CheckOut},
			})
		}
	} else {
		notifications.Dispatch(notifications.BookingEvent{
			Type:           notifications.EventAllocationFailed,
			BookingID:      booking.ID,
			RecipientRole:  "tourist",
			RecipientName:  tourist.FullName,
			RecipientEmail: tourist.Email,
		})
		notifications.DispatchOps(notifications.BookingEvent{
			Type:      notifications.EventAllocationFailed,
			BookingID: booking.ID,
			Payload:   map[string]string{"languages": strings.Join(req.Languages, ", ")},
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Booking created successfully.",
		"booking": booking,
	})
}

func GetMyBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	touristID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Guide.User").
		Preload("Destination").
		Where("tourist_id = ?", touristID).
		Order("check_in desc").
		Find(&bookings)

	return c.JSON(bookings)
}

// GetBookingActivity returns the audit trail, most recent first. The storage
// itself is append-only; only the read path sorts.
func GetBookingActivity(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	role := claims["role"].(string)
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	isParty := booking.TouristID == userID || (booking.GuideID != nil && *booking.GuideID == userID)
	if !isParty && role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}

	var activities []models.BookingActivity
	database.DB.
		Where("booking_id = ?", bookingID).
		Order("created_at desc").
		Find(&activities)

	return c.JSON(activities)
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func CreateReview(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	touristID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var newReview models.Review
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.TouristID != touristID {
			return errors.New("you are not the tourist for this booking")
		}
		if booking.BookingStatus != services.StatusCompleted {
			return errors.New("reviews can only be submitted for completed tours")
		}
		if booking.GuideID == nil {
			return errors.New("this booking has no guide to review")
		}

		var existingReview models.Review
		if err := tx.Where("booking_id = ?", bookingID).First(&existingReview).Error; err == nil {
			return errors.New("a review for this booking has already been submitted")
		}

		newReview = models.Review{
			BookingID: booking.ID,
			TouristID: touristID,
			GuideID:   *booking.GuideID,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}
		if err := tx.Create(&newReview).Error; err != nil {
			return err
		}

		var result struct {
			Avg float64
		}
		tx.Model(&models.Review{}).Where("guide_id = ?", *booking.GuideID).Select("avg(rating) as avg").Scan(&result)

		return tx.Model(&models.Guide{}).Where("user_id = ?", *booking.GuideID).Update("avg_rating", result.Avg).Error
	})

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(newReview)
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func RequestRefund(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	touristID, _ := uuid.Parse(claims["user_id"].(string))
	bookingID := c.Params("bookingId")

	var req RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.TouristID != touristID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if booking.CheckIn.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot request a refund for a tour that has already started"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, "booking_id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	refundStatus := "requested"
	payment.RefundStatus = &refundStatus
	payment.RefundReason = &req.Reason
	database.DB.Save(&payment)

	return c.JSON(fiber.Map{"message": "Refund request submitted successfully. An admin will review it shortly."})
}
