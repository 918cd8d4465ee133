package middleware

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wanderpal/tour_guide/database"
)

const (
	pinAttemptLimit  = 5
	pinAttemptWindow = 15 * time.Minute
)

// PinAttemptLimiter throttles completion-PIN attempts per booking and caller,
// the boundary control against brute-forcing the 6-digit secret. Fails open
// when Redis is not configured.
func PinAttemptLimiter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if database.RDB == nil {
			return c.Next()
		}

		key := fmt.Sprintf("pin_attempts:%s:%s", c.Params("bookingId"), c.IP())

		ctx := context.Background()
		count, err := database.RDB.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("⚠️ PIN rate limiter unavailable: %v", err)
			return c.Next()
		}
		if count == 1 {
			database.RDB.Expire(ctx, key, pinAttemptWindow)
		}

		if count > pinAttemptLimit {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many PIN attempts for this booking. Try again later.",
			})
		}
		return c.Next()
	}
}
