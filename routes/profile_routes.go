package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wanderpal/tour_guide/handlers"
	"github.com/wanderpal/tour_guide/middleware"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile/me", middleware.Protected())
	profile.Get("", handlers.GetProfile)
	profile.Put("", handlers.UpdateProfile)
}
