package auth

import (
	"time"

	"github.com/tiya001/hw05-final/internal/render"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, rnd render.Renderer) {
	r.Get("/login/", func(c *fiber.Ctx) error {
		return rnd.Render(c, "users/login", fiber.Map{
			"form": fiber.Map{},
			"next": c.Query("next"),
		})
	})

	r.Post("/login/", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}

		_, token, err := svc.Login(c.Context(), req)
		if err != nil {
			return rnd.Render(c, "users/login", fiber.Map{
				"form":   fiber.Map{"username": req.Username},
				"errors": fiber.Map{"__all__": ErrInvalidLogin.Error()},
				"next":   nextTarget(c),
			})
		}

		setSessionCookie(c, token)
		return c.Redirect(nextTarget(c), fiber.StatusFound)
	})

	r.Get("/signup/", func(c *fiber.Ctx) error {
		return rnd.Render(c, "users/signup", fiber.Map{"form": fiber.Map{}})
	})

	r.Post("/signup/", func(c *fiber.Ctx) error {
		var req SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}

		_, token, err := svc.Register(c.Context(), req)
		if err != nil {
			return rnd.Render(c, "users/signup", fiber.Map{
				"form":   fiber.Map{"username": req.Username, "email": req.Email},
				"errors": fiber.Map{"__all__": err.Error()},
			})
		}

		setSessionCookie(c, token)
		return c.Redirect("/", fiber.StatusFound)
	})

	r.Get("/logout/", func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
		})
		return c.Redirect("/", fiber.StatusFound)
	})
}

func setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
	})
}

func nextTarget(c *fiber.Ctx) string {
	if next := c.FormValue("next"); next != "" {
		return next
	}
	if next := c.Query("next"); next != "" {
		return next
	}
	return "/"
}
