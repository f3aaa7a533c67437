package render

import "github.com/gofiber/fiber/v2"

// Renderer turns a view's context map into a response. Handlers never build
// response bodies themselves, so the presentation layer can be swapped (JSON
// today, server-side templates behind the same call).
type Renderer interface {
	Render(c *fiber.Ctx, page string, data fiber.Map) error
}

// JSON is the default renderer: it emits the page name and the raw context.
type JSON struct{}

func (JSON) Render(c *fiber.Ctx, page string, data fiber.Map) error {
	return c.JSON(fiber.Map{
		"page":    page,
		"context": data,
	})
}
