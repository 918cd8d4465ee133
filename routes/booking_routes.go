package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wanderpal/tour_guide/handlers"
	"github.com/wanderpal/tour_guide/middleware"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("/order", handlers.CreateBookingOrder)
	booking.Post("", handlers.CreateBooking)
	booking.Get("/:bookingId/activity", handlers.GetBookingActivity)
	booking.Post("/:bookingId/review", handlers.CreateReview)
	booking.Post("/:bookingId/request-refund", handlers.RequestRefund)

	guideBooking := api.Group("/guide/bookings", middleware.Protected(), middleware.GuideRequired())
	guideBooking.Get("/me", handlers.GetMyAssignments)
	guideBooking.Post("/:bookingId/accept", handlers.AcceptBooking)
	guideBooking.Post("/:bookingId/reject", handlers.RejectBooking)
	guideBooking.Post("/:bookingId/complete", middleware.PinAttemptLimiter(), handlers.CompleteTour)
}
