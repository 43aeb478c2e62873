package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// WriteLimiter allows each client IP at most max requests per minute through the routes
// it guards. A max below 1 disables the limit.
func WriteLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(*fiber.Ctx) bool {
			return max < 1
		},
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"detail":  "Rate limit exceeded. Please try again later.",
			})
		},
	})
}
