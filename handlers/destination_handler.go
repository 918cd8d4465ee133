package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wanderpal/tour_guide/database"
	"github.com/wanderpal/tour_guide/models"
)

type DestinationRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=255"`
	Location    string  `json:"location" validate:"required"`
	Description *string `json:"description"`
	PricePerDay float64 `json:"price_per_day" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	PhotoURL    *string `json:"photo_url"`
}

func ListDestinations(c *fiber.Ctx) error {
	query := database.DB.Where("is_active = ?", true)
	if location := c.Query("location"); location != "" {
		query = query.Where("location ILIKE ?", "%"+location+"%")
	}

	var destinations []models.Destination
	query.Order("name asc").Find(&destinations)
	return c.JSON(destinations)
}

func GetDestination(c *fiber.Ctx) error {
	var destination models.Destination
	if err := database.DB.First(&destination, "id = ? AND is_active = ?", c.Params("destinationId"), true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Destination not found"})
	}
	return c.JSON(destination)
}

func CreateDestination(c *fiber.Ctx) error {
	var req DestinationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	destination := models.Destination{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		Currency:    req.Currency,
		PhotoURL:    req.PhotoURL,
		IsActive:    true,
	}
	if err := database.DB.Create(&destination).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A destination with this name already exists"})
	}

	return c.Status(fiber.StatusCreated).JSON(destination)
}

func UpdateDestination(c *fiber.Ctx) error {
	var destination models.Destination
	if err := database.DB.First(&destination, "id = ?", c.Params("destinationId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Destination not found"})
	}

	var req DestinationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	destination.Name = req.Name
	destination.Location = req.Location
	destination.Description = req.Description
	destination.PricePerDay = req.PricePerDay
	destination.Currency = req.Currency
	destination.PhotoURL = req.PhotoURL
	database.DB.Save(&destination)

	return c.JSON(destination)
}

// DeactivateDestination soft-deletes: existing bookings keep their reference,
// new bookings and public listings no longer see it.
func DeactivateDestination(c *fiber.Ctx) error {
	result := database.DB.Model(&models.Destination{}).
		Where("id = ?", c.Params("destinationId")).
		Update("is_active", false)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Destination not found"})
	}
	return c.JSON(fiber.Map{"message": "Destination deactivated"})
}
