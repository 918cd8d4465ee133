package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/database"
	"github.com/wanderpal/tour_guide/models"
	"github.com/wanderpal/tour_guide/notifications"
	"github.com/wanderpal/tour_guide/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ListPendingApplications(c *fiber.Ctx) error {
	var applications []models.Guide
	database.DB.Preload("User").Where("status = ?", services.GuideStatusPending).Order("created_at asc").Find(&applications)
	return c.JSON(applications)
}

type ManageApplicationRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// ManageApplication approves or rejects a pending guide application. Approval
// also promotes the user's role so guide-only routes open up.
func ManageApplication(c *fiber.Ctx) error {
	guideID := c.Params("guideId")

	var req ManageApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var guide models.Guide
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("User").First(&guide, "user_id = ?", guideID).Error; err != nil {
			return errors.New("application not found")
		}
		if guide.Status != services.GuideStatusPending {
			return errors.New("this application has already been processed")
		}

		if req.Action == "approve" {
			if err := tx.Model(&guide).Update("status", services.GuideStatusApproved).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", guide.UserID).Update("role", "guide").Error
		}
		return tx.Model(&guide).Update("status", services.GuideStatusRejected).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	subject := "Your guide application was not approved"
	body := "<h1>Application Update</h1><p>Unfortunately we cannot approve your guide application at this time.</p>"
	if req.Action == "approve" {
		subject = "Welcome aboard, guide!"
		body = "<h1>Application Approved</h1><p>Congratulations! You can now receive tour assignments.</p>"
	}
	go notifications.SendEmail(guide.User.FullName, guide.User.Email, subject, body)

	return c.JSON(fiber.Map{"message": fmt.Sprintf("Application %sd", req.Action)})
}

// ListUnassignedBookings surfaces paid bookings that allocation could not
// place, for manual assignment.
func ListUnassignedBookings(c *fiber.Ctx) error {
	var bookings []models.Booking
	database.DB.
		Preload("Tourist").
		Preload("Destination").
		Where("guide_id IS NULL AND booking_status = ?", services.StatusPendingGuideConfirmation).
		Order("check_in asc").
		Find(&bookings)
	return c.JSON(bookings)
}

type AssignGuideRequest struct {
	GuideID string `json:"guide_id" validate:"required,uuid"`
}

// AssignGuide manually places a guide on an unassigned booking. The same
// conflict rules apply as in automatic allocation, and the conditional write
// means two admins racing on the same booking cannot double-assign.
func AssignGuide(c *fiber.Ctx) error {
	bookingID := c.Params("bookingId")

	var req AssignGuideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	guideID, _ := uuid.Parse(req.GuideID)

	var booking models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}

		var guide models.Guide
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&guide, "user_id = ? AND status = ? AND is_available = ?", guideID, services.GuideStatusApproved, true).Error; err != nil {
			return errors.New("guide not found, not approved, or unavailable")
		}

		var overlapping []models.Booking
		if err := tx.Where("guide_id = ? AND booking_status IN ? AND check_in < ? AND check_out > ?",
			guideID, []string{services.StatusConfirmed, services.StatusPendingGuideConfirmation},
			booking.CheckOut, booking.CheckIn).Find(&overlapping).Error; err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return errors.New("guide already has a booking in this date range")
		}

		result := tx.Model(&models.Booking{}).
			Where("id = ? AND guide_id IS NULL AND booking_status = ?", booking.ID, services.StatusPendingGuideConfirmation).
			Update("guide_id", guideID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("booking is no longer awaiting assignment")
		}

		return services.AppendActivity(tx, booking.ID, services.ActivityGuideAssigned,
			fmt.Sprintf("Guide %s assigned manually by an administrator.", guideID))
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var guideUser models.User
	if err := database.DB.First(&guideUser, "id = ?", guideID).Error; err == nil {
		notifications.Dispatch(notifications.BookingEvent{
			Type:           notifications.EventGuideAssigned,
			BookingID:      booking.ID,
			RecipientRole:  "guide",
			RecipientName:  guideUser.FullName,
			RecipientEmail: guideUser.Email,
			Payload: map[string]string{
				"check_in":  booking.CheckIn.Format("2006-01-02"),
				"check_out": booking.CheckOut.Format("2006-01-02"),
			},
		})
	}

	var tourist models.User
	if err := database.DB.First(&tourist, "id = ?", booking.TouristID).Error; err == nil {
		notifications.Dispatch(notifications.BookingEvent{
			Type:           notifications.EventGuideFound,
			BookingID:      booking.ID,
			RecipientRole:  "tourist",
			RecipientName:  tourist.FullName,
			RecipientEmail: tourist.Email,
			Payload: map[string]string{
				"guide_name": guideUser.FullName,
				"check_in":   booking.CheckIn.Format("2006-01-02"),
				"check_out":  booking.CheckOut.Format("2006-01-02"),
			},
		})
	}

	return c.JSON(fiber.Map{"message": "Guide assigned successfully"})
}

func AdminGetAllBookings(c *fiber.Ctx) error {
	query := database.DB.
		Preload("Tourist").
		Preload("Guide.User").
		Preload("Destination")

	if status := c.Query("status"); status != "" {
		query = query.Where("booking_status = ?", status)
	}

	var bookings []models.Booking
	query.Order("created_at desc").Limit(200).Find(&bookings)
	return c.JSON(bookings)
}

func ListRefundRequests(c *fiber.Ctx) error {
	var paymentRecords []models.Payment
	database.DB.
		Preload("Booking.Tourist").
		Where("refund_status IS NOT NULL AND refund_status IN ?", []string{"requested", "pending"}).
		Order("updated_at asc").
		Find(&paymentRecords)
	return c.JSON(paymentRecords)
}

type ProcessRefundRequest struct {
	Action string `json:"action" validate:"required,oneof=approve deny"`
	Notes  string `json:"notes"`
}

// ProcessRefund settles a refund request. Approval also cancels the booking if
// it is still live, which frees the assigned guide's dates.
func ProcessRefund(c *fiber.Ctx) error {
	paymentID := c.Params("paymentId")

	var req ProcessRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, "id = ?", paymentID).Error; err != nil {
			return errors.New("payment record not found")
		}
		if payment.RefundStatus == nil || (*payment.RefundStatus != "requested" && *payment.RefundStatus != "pending") {
			return errors.New("no open refund request on this payment")
		}

		newStatus := "denied"
		if req.Action == "approve" {
			newStatus = "refunded"
		}
		if err := tx.Model(&payment).Update("refund_status", newStatus).Error; err != nil {
			return err
		}

		if req.Action != "approve" || payment.BookingID == nil {
			return nil
		}

		var booking models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", *payment.BookingID).Error; err != nil {
			return err
		}
		// Only a booking still awaiting guide confirmation can be cancelled;
		// confirmed or settled tours keep their state and just get refunded.
		// The booking keeps payment_status "paid" either way: the money was
		// captured, and the refund lives on the payment row.
		if !services.CanTransition(booking.BookingStatus, services.StatusCancelled) {
			return nil
		}
		return services.TransitionBooking(tx, &booking, services.StatusCancelled, nil,
			services.ActivityTourCancelled, "Booking cancelled: refund approved by an administrator.")
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": fmt.Sprintf("Refund %s", map[string]string{"approve": "approved", "deny": "denied"}[req.Action])})
}

func ListPayoutRequests(c *fiber.Ctx) error {
	var payouts []models.PayoutRequest
	database.DB.Preload("Guide").Where("status = ?", "pending").Order("requested_at asc").Find(&payouts)
	return c.JSON(payouts)
}

type ProcessPayoutRequestBody struct {
	Action string `json:"action" validate:"required,oneof=approve deny"`
	Notes  string `json:"notes"`
}

func ProcessPayoutRequest(c *fiber.Ctx) error {
	payoutID := c.Params("payoutId")

	var req ProcessPayoutRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var payout models.PayoutRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payout, "id = ?", payoutID).Error; err != nil {
			return errors.New("payout request not found")
		}
		if payout.Status != "pending" {
			return errors.New("this payout request has already been processed")
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       "denied",
			"processed_at": now,
		}
		if req.Action == "approve" {
			updates["status"] = "paid"
		}
		if req.Notes != "" {
			updates["admin_notes"] = req.Notes
		}
		// total_earnings is never written here: lifetime earnings only grow
		// through completion crediting, and a paid payout keeps reserving its
		// amount against the withdrawable balance.
		return tx.Model(&payout).Updates(updates).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Payout request processed"})
}

// GetDashboardAnalytics aggregates the headline numbers for the admin console.
func GetDashboardAnalytics(c *fiber.Ctx) error {
	var totalUsers, totalGuides, totalBookings, pendingApplications, unassignedBookings int64
	var totalRevenue float64

	database.DB.Model(&models.User{}).Count(&totalUsers)
	database.DB.Model(&models.Guide{}).Where("status = ?", services.GuideStatusApproved).Count(&totalGuides)
	database.DB.Model(&models.Booking{}).Count(&totalBookings)
	database.DB.Model(&models.Guide{}).Where("status = ?", services.GuideStatusPending).Count(&pendingApplications)
	database.DB.Model(&models.Booking{}).
		Where("guide_id IS NULL AND booking_status = ?", services.StatusPendingGuideConfirmation).
		Count(&unassignedBookings)
	database.DB.Model(&models.Booking{}).
		Where("payment_status = ?", "paid").
		Select("coalesce(sum(total_amount), 0)").
		Scan(&totalRevenue)

	var statusBreakdown []struct {
		BookingStatus string `json:"booking_status"`
		Count         int64  `json:"count"`
	}
	database.DB.Model(&models.Booking{}).
		Select("booking_status, count(*) as count").
		Group("booking_status").
		Scan(&statusBreakdown)

	return c.JSON(fiber.Map{
		"total_users":          totalUsers,
		"approved_guides":      totalGuides,
		"total_bookings":       totalBookings,
		"pending_applications": pendingApplications,
		"unassigned_bookings":  unassignedBookings,
		"total_revenue":        totalRevenue,
		"bookings_by_status":   statusBreakdown,
	})
}
