package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// CSRFCookie holds the token the compose page echoes back
	CSRFCookie = "penpal_csrf"
	// CSRFHeader carries the echoed token on unsafe requests
	CSRFHeader = "X-Penpal-CSRF"

	csrfLocal       = "csrf_token"
	csrfTokenLength = 32
)

// CSRFConfig configures the double-submit check
type CSRFConfig struct {
	CookieSecure bool
	CookieMaxAge int // seconds
	// Skip exempts requests from the check. Defaults to SkipBearer.
	Skip func(*fiber.Ctx) bool
}

// CSRF issues a token cookie on every page and requires POST, PUT, PATCH
// and DELETE requests to echo it in CSRFHeader.
type CSRF struct {
	cfg CSRFConfig
}

// NewCSRF creates the middleware
func NewCSRF(cfg CSRFConfig) *CSRF {
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = 3600
	}
	if cfg.Skip == nil {
		cfg.Skip = SkipBearer
	}
	return &CSRF{cfg: cfg}
}

// Handler returns the fiber middleware
func (m *CSRF) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.cfg.Skip(c) {
			return c.Next()
		}

		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			m.issue(c)
			return c.Next()
		}

		cookie := c.Cookies(CSRFCookie)
		header := c.Get(CSRFHeader)
		if cookie == "" || header == "" {
			return fiber.NewError(fiber.StatusForbidden, "CSRF token missing")
		}
		if subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			return fiber.NewError(fiber.StatusForbidden, "CSRF token mismatch")
		}
		c.Locals(csrfLocal, cookie)
		return c.Next()
	}
}

// issue reuses the token cookie of the request or sets a fresh one
func (m *CSRF) issue(c *fiber.Ctx) {
	token := c.Cookies(CSRFCookie)
	if token == "" {
		token = newCSRFToken()
		c.Cookie(&fiber.Cookie{
			Name:     CSRFCookie,
			Value:    token,
			MaxAge:   m.cfg.CookieMaxAge,
			HTTPOnly: false, // read by the page script
			SameSite: "Strict",
			Secure:   m.cfg.CookieSecure,
		})
	}
	c.Locals(csrfLocal, token)
}

// CSRFToken returns the token issued for this request, empty when the
// middleware did not run.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfLocal).(string)
	return token
}

// SkipBearer skips requests authenticated with a bearer token. They carry
// no ambient cookie credentials to forge.
func SkipBearer(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
}

func newCSRFToken() string {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
