package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/symph-co/shorturl/internal/http/view"
)

// Docs serves the OpenAPI document.
func Docs(c *fiber.Ctx) error {
	c.Type("json", "utf-8")
	return c.Send(view.OpenAPI)
}
