package server

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

const (
	flashCookie  = "flash"
	localsFlash  = "flashes"
	flashSuccess = "success"
	flashDanger  = "danger"
	flashInfo    = "info"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// LoadFlashes reads messages left by earlier requests into locals.
func (s *Server) LoadFlashes() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Cookies(flashCookie); raw != "" {
			c.Locals(localsFlash, decodeFlashes(raw))
		}
		return c.Next()
	}
}

// flash queues a message. Messages stay in the cookie until a page renders them.
func (s *Server) flash(c *fiber.Ctx, category, message string) {
	flashes := append(pendingFlashes(c), Flash{Category: category, Message: message})
	c.Locals(localsFlash, flashes)

	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    encodeFlashes(flashes),
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// takeFlashes returns all queued messages and clears the cookie.
func takeFlashes(c *fiber.Ctx) []Flash {
	flashes := pendingFlashes(c)
	if len(flashes) == 0 {
		return nil
	}
	c.Locals(localsFlash, []Flash(nil))
	clearCookie(c, flashCookie)
	return flashes
}

func pendingFlashes(c *fiber.Ctx) []Flash {
	flashes, _ := c.Locals(localsFlash).([]Flash)
	return flashes
}

func encodeFlashes(flashes []Flash) string {
	b, err := json.Marshal(flashes)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// decodeFlashes ignores cookies it cannot read.
func decodeFlashes(raw string) []Flash {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(b, &flashes); err != nil {
		return nil
	}
	return flashes
}
