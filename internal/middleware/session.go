package middleware

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// Session cookie names. sb-token is the opaque provider session token
// (httpOnly); sb-user is a URL-encoded JSON user snapshot readable by
// client-side code.
const (
	CookieToken = "sb-token"
	CookieUser  = "sb-user"
)

// SessionConfig configures the session guard.
type SessionConfig struct {
	// LoginURL, when set, turns missing-session failures into redirects
	// (browser pages). Empty means 401 JSON (API routes).
	LoginURL string
}

// SessionGuard blocks requests that carry neither session cookie and
// injects a UserContext into Fiber locals when the user cookie parses.
// The auth callback and its sibling endpoints always pass through: they are
// how an unauthenticated browser becomes authenticated.
func SessionGuard(cfg SessionConfig) fiber.Handler {
	return func(c fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/auth/callback") || strings.HasPrefix(path, "/api/auth/") {
			return c.Next()
		}

		token := c.Cookies(CookieToken)
		userCookie := c.Cookies(CookieUser)

		if token == "" && userCookie == "" {
			if cfg.LoginURL != "" {
				return c.Redirect().To(cfg.LoginURL)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No authentication token",
			})
		}

		if user, ok := DecodeUserCookie(userCookie); ok {
			c.Locals("user", &domain.UserContext{UserID: user.ID, Email: user.Email})
		}

		return c.Next()
	}
}

// GetUserContext extracts the UserContext from Fiber locals.
func GetUserContext(c fiber.Ctx) *domain.UserContext {
	u, ok := c.Locals("user").(*domain.UserContext)
	if !ok {
		return nil
	}
	return u
}

// DecodeUserCookie parses the URL-encoded JSON user snapshot from the
// sb-user cookie. A malformed cookie is not an error; callers fall back to
// verifying the token with the provider.
func DecodeUserCookie(raw string) (*domain.User, bool) {
	if raw == "" {
		return nil, false
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		decoded = raw
	}
	var user domain.User
	if err := json.Unmarshal([]byte(decoded), &user); err != nil || user.ID == "" {
		return nil, false
	}
	return &user, true
}
