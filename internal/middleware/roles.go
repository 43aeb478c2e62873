package middleware

import "github.com/gofiber/fiber/v2"

// RequireRole allows only callers whose role (set by Auth) is one of roles:
//
//	admin.Patch("/club-members/:id", middleware.RequireRole(middleware.RoleAdmin), handlers.UpdateClubMember(db))
//
// It must run after Auth. A missing role is treated as forbidden rather than
// unauthenticated, since Auth has already accepted the token.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("userRole").(string)
		if !ok || userRole == "" {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
}
