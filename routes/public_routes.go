package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wanderpal/tour_guide/handlers"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/destinations", handlers.ListDestinations)
	api.Get("/destinations/:destinationId", handlers.GetDestination)

	api.Get("/guides", handlers.ListGuides)
	api.Get("/guides/:guideId", handlers.GetGuideProfile)
}
