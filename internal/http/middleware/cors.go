package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// CORS lets the browser client call the API from another origin.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+RequestIDHeader)
		c.Set("Access-Control-Expose-Headers", "Content-Length, Content-Type, "+RequestIDHeader+", "+LinkExpiredHeader)
		c.Set("Access-Control-Max-Age", "86400")

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Next()
	}
}

// LinkExpiredHeader marks redirects served for links past their expiry.
const LinkExpiredHeader = "X-Link-Expired"
