package server

import (
	"html/template"
	"strings"

	"civichub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
)

const (
	csrfFormField  = "_csrf"
	csrfContextKey = "csrf"
)

// render executes a page template inside the base layout. Every page gets the
// current user, pending flashes, the CSRF token and the category list.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	data["CurrentUser"] = currentUser(c)
	data["Flashes"] = takeFlashes(c)
	data["Categories"] = models.Categories
	data["CSRFField"] = csrfFormField
	if token, ok := c.Locals(csrfContextKey).(string); ok {
		data["CSRFToken"] = token
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = ""
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}

	return c.Render(name, data)
}

// lineBreaks lets through nothing but the <br> elements added by multiline.
var lineBreaks = bluemonday.NewPolicy().AllowElements("br")

// multiline renders user text with its line breaks kept. The text is escaped
// first, so anything the user typed shows up literally.
func multiline(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
	return template.HTML(lineBreaks.Sanitize(escaped)) //nolint:gosec // escaped above, only <br> survives
}
