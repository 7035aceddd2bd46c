package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gorefurbish/backend/internal/services"
)

// AuthCookie is the cookie the signin handler sets.
const AuthCookie = "auth_token"

// Authenticate validates the session token and stores the caller's identity
// in the request locals.
func Authenticate(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(AuthCookie)
		if tokenString == "" {
			// Fall back to the Authorization header for API clients.
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				tokenString = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication token is missing",
			})
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authentication token",
			})
		}

		userID, err := claims.UserID()
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authentication token",
			})
		}

		c.Locals("userID", userID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}
