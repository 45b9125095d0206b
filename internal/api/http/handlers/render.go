package handlers

import (
	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

// sendComponent renders a templ component as a private, uncacheable HTML response.
func sendComponent(c *fiber.Ctx, component templ.Component) error {
	c.Type("html", "utf-8")
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	c.Vary(fiber.HeaderCookie)
	return component.Render(c.UserContext(), c.Response().BodyWriter())
}
