package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wanderpal/tour_guide/handlers"
	"github.com/wanderpal/tour_guide/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/applications/pending", handlers.ListPendingApplications)
	admin.Put("/applications/:guideId", handlers.ManageApplication)
	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	admin.Get("/bookings", handlers.AdminGetAllBookings)
	admin.Get("/bookings/unassigned", handlers.ListUnassignedBookings)
	admin.Post("/bookings/:bookingId/assign-guide", handlers.AssignGuide)

	admin.Get("/refund-requests", handlers.ListRefundRequests)
	admin.Post("/refund-requests/:paymentId/process", handlers.ProcessRefund)

	admin.Get("/payout-requests", handlers.ListPayoutRequests)
	admin.Post("/payout-requests/:payoutId/process", handlers.ProcessPayoutRequest)

	destinations := admin.Group("/destinations")
	destinations.Post("", handlers.CreateDestination)
	destinations.Put("/:destinationId", handlers.UpdateDestination)
	destinations.Delete("/:destinationId", handlers.DeactivateDestination)
}
