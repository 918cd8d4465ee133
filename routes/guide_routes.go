package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wanderpal/tour_guide/handlers"
	"github.com/wanderpal/tour_guide/middleware"
)

func GuideRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Any authenticated user can apply; the rest requires the guide role.
	api.Post("/guides/apply", middleware.Protected(), handlers.ApplyToBeAGuide)

	guide := api.Group("/guide", middleware.Protected(), middleware.GuideRequired())
	guide.Put("/availability", handlers.UpdateAvailability)
	guide.Put("/languages", handlers.UpdateLanguages)
	guide.Get("/earnings", handlers.GetMyEarnings)
	guide.Post("/payout-requests", handlers.RequestPayout)
	guide.Get("/payout-requests", handlers.GetMyPayoutRequests)
	guide.Post("/request-deletion", handlers.RequestDeletion)
	guide.Post("/cancel-deletion", handlers.CancelDeletion)
}
