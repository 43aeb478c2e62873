// Package middleware contains the HTTP middleware for the admin routes: token
// authentication and role checks.
package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the "role" claim.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Claims is the payload of an admin token. Subject identifies the admin; email and role
// are custom claims.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Auth returns a middleware that validates an HS256 "Authorization: Bearer <token>"
// signed with secret, then stores the caller's subject, email and role in c.Locals
// ("userID", "userEmail", "userRole") for the handlers behind it.
//
// With an empty secret every request is rejected, so the admin routes stay closed
// until a secret is configured.
func Auth(secret string) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(c *fiber.Ctx) error {
		if len(key) == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "admin authentication is not configured")
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid authorization header")
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token missing subject")
		}

		role := claims.Role
		if role == "" {
			role = RoleUser
		}
		c.Locals("userID", claims.Subject)
		c.Locals("userEmail", claims.Email)
		c.Locals("userRole", role)

		return c.Next()
	}
}

// SignToken issues a token Auth will accept, valid for ttl.
func SignToken(secret, subject, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:  role,
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
