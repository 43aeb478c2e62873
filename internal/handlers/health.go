// Package handlers contains the HTTP route handlers. Each exported function is a handler
// factory: it takes what the route needs (the race data service, the database, the
// websocket hub) and returns a fiber.Handler, so nothing is held in package globals.
//
// Successful responses are {"success": true, ...} with a named payload; errors are
// returned to fiber and rendered by ErrorHandler.
package handlers

import "github.com/gofiber/fiber/v2"

// Version is reported by the health endpoints.
const Version = "1.0.0"

// HealthCheck handles GET / and GET /health. It touches nothing but the process, so
// load balancers can poll it freely.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "NashfyPitStop API is running",
		"version": Version,
	})
}
