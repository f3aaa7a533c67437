package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookie = "session"
	LoginPath     = "/auth/login/"
)

// Authenticate resolves the session cookie into request locals. It never
// blocks a request; anonymous callers simply carry no identity.
func Authenticate(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			return c.Next()
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		})
		if err != nil {
			return c.Next()
		}

		if claims, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
			c.Locals("user_id", claims.UserID)
			c.Locals("username", claims.Username)
		}
		return c.Next()
	}
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

// RequireLogin sends anonymous callers to the login form, carrying the
// originally requested path so login can return them there.
func RequireLogin(c *fiber.Ctx) error {
	if CurrentUserID(c) == "" {
		return c.Redirect(LoginPath+"?next="+c.OriginalURL(), fiber.StatusFound)
	}
	return c.Next()
}

func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func CurrentUsername(c *fiber.Ctx) string {
	name, _ := c.Locals("username").(string)
	return name
}
