package handler

import (
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/domain"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/middleware"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/service"
	"github.com/gofiber/fiber/v3"
)

// CookieSettings controls the attributes of the two session cookies.
type CookieSettings struct {
	Secure bool // production only
	MaxAge int  // seconds
}

// AuthHandler handles the authentication callback and its sibling endpoints.
type AuthHandler struct {
	authService *service.AuthService
	siteURL     string
	cookies     CookieSettings
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService, siteURL string, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{authService: authService, siteURL: siteURL, cookies: cookies}
}

// Register sets up auth routes. The callback route stays outside any session
// guard: it must be reachable unauthenticated.
func (h *AuthHandler) Register(app *fiber.App) {
	app.Get("/auth/callback", h.Callback)

	auth := app.Group("/api/auth")
	auth.Post("/callback-fragment", h.CallbackFragment)
	auth.Post("/send-otp", h.SendMagicLink)
	auth.Get("/user", h.User)
	auth.Post("/logout", h.Logout)
}

// Callback is the single entry point for all four proof shapes the provider
// can redirect to. It ends in exactly one of two states: session established
// (both cookies set, redirect to next) or session rejected (redirect to
// /login with the reason). When no proof is visible server-side the tokens
// are in the URL fragment, and the only option is to hand the browser a page
// that extracts them.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	next := c.Query("next")
	if next == "" {
		next = "/dashboard"
	}

	proof := service.ClassifyProof(c.Queries())
	if proof.Kind == service.ProofFragmentOnly {
		c.Type("html")
		return c.SendString(fragmentPage)
	}

	session, err := h.authService.Establish(c.Context(), proof)
	if err != nil {
		return c.Redirect().To("/login?error=" + url.QueryEscape(authErrorMessage(err)))
	}

	h.setSessionCookies(c, session)
	return c.Redirect().To(next)
}

// CallbackFragment adopts tokens that the fragment page extracted client-side.
// Responds with JSON instead of redirecting; the calling page navigates.
func (h *AuthHandler) CallbackFragment(c fiber.Ctx) error {
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresAt    int64  `json:"expires_at"`
		Type         string `json:"type"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Missing access token or refresh token",
		})
	}

	session, err := h.authService.AdoptTokens(c.Context(), body.AccessToken, body.RefreshToken)
	if err != nil {
		var pe *port.ProviderError
		status := fiber.StatusInternalServerError
		msg := "Authentication failed"
		switch {
		case errors.Is(err, port.ErrMissingTokens):
			status = fiber.StatusBadRequest
			msg = "Missing access token or refresh token"
		case errors.Is(err, port.ErrNoSession):
			status = fiber.StatusBadRequest
			msg = "No session created"
		case errors.As(err, &pe):
			status = fiber.StatusBadRequest
			msg = pe.Message
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
	}

	if session.ExpiresAt == 0 {
		session.ExpiresAt = body.ExpiresAt
	}
	if session.TokenType == "" {
		session.TokenType = body.TokenType
	}

	h.setSessionCookies(c, session)
	return c.JSON(fiber.Map{
		"success": true,
		"user":    session.User,
		"session": session,
	})
}

// SendMagicLink asks the provider to email a one-time login link.
func (h *AuthHandler) SendMagicLink(c fiber.Ctx) error {
	var body struct {
		PhoneOrEmail string `json:"phoneOrEmail"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.PhoneOrEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Email is required",
		})
	}

	if err := h.authService.SendMagicLink(c.Context(), body.PhoneOrEmail, h.siteURL); err != nil {
		var pe *port.ProviderError
		if errors.As(err, &pe) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": pe.Message})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Internal server error"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Check your email for the login link!",
	})
}

// User resolves the authenticated user: from the sb-user cookie when it
// parses, otherwise by verifying the sb-token with the provider.
func (h *AuthHandler) User(c fiber.Ctx) error {
	token := c.Cookies(middleware.CookieToken)
	userCookie := c.Cookies(middleware.CookieUser)

	if token == "" && userCookie == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No authentication token"})
	}

	if user, ok := middleware.DecodeUserCookie(userCookie); ok {
		return c.JSON(fiber.Map{"user": user})
	}

	if token != "" {
		user, err := h.authService.ResolveUser(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		return c.JSON(fiber.Map{"user": user})
	}

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No valid authentication"})
}

// Logout clears both session cookies. No provider call is made.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	h.clearSessionCookies(c)
	return c.JSON(fiber.Map{"success": true})
}

// setSessionCookies writes the cooperating pair: sb-token holds the opaque
// session token (server-only); sb-user holds a URL-encoded JSON user
// snapshot readable by client code.
func (h *AuthHandler) setSessionCookies(c fiber.Ctx, session *domain.Session) {
	userJSON, _ := json.Marshal(session.User)

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieToken,
		Value:    session.AccessToken,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   h.cookies.MaxAge,
	})
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieUser,
		Value:    url.QueryEscape(string(userJSON)),
		Path:     "/",
		HTTPOnly: false,
		Secure:   h.cookies.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   h.cookies.MaxAge,
	})
}

func (h *AuthHandler) clearSessionCookies(c fiber.Ctx) {
	for _, name := range []string{middleware.CookieToken, middleware.CookieUser} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			SameSite: fiber.CookieSameSiteLaxMode,
			Expires:  time.Now().Add(-time.Hour),
			MaxAge:   -1,
		})
	}
}

// authErrorMessage maps an exchange failure to the user-visible reason.
// Provider-authored messages pass through verbatim; inconsistent successes
// and everything unexpected get fixed messages.
func authErrorMessage(err error) string {
	var pe *port.ProviderError
	switch {
	case errors.Is(err, port.ErrNoSession):
		return "No session created"
	case errors.As(err, &pe):
		return pe.Message
	default:
		return "Authentication failed"
	}
}
