package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PlugStatic answers requests for hidden files under staticPrefix instead of
// letting them fall through to the file server.
func PlugStatic(staticPrefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if !strings.HasPrefix(path, staticPrefix) {
			return c.Next()
		}

		for _, segment := range strings.Split(strings.TrimPrefix(path, staticPrefix), "/") {
			if strings.HasPrefix(segment, ".") {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"status": "ignored hidden static",
				})
			}
		}

		return c.Next()
	}
}
