package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireJSON rejects requests whose Content-Type is not application/json.
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		contentType := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
		mediaType, _, _ := strings.Cut(contentType, ";")
		if strings.TrimSpace(mediaType) != fiber.MIMEApplicationJSON {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"message": "Content-Type must be application/json",
			})
		}
		return c.Next()
	}
}
