package server

import (
	"errors"
	"log/slog"

	"civichub/internal/middleware"
	"civichub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

var errorMessages = map[int]string{
	fiber.StatusForbidden:           "You don't have permission to do that.",
	fiber.StatusNotFound:            "That page doesn't exist.",
	fiber.StatusMethodNotAllowed:    "That action isn't allowed here.",
	fiber.StatusInternalServerError: "Something went wrong on our end. Please try again later.",
}

// ErrorHandler renders the error page for errors returned by handlers.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	code := models.StatusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}

	msg, ok := errorMessages[code]
	if !ok {
		msg = fiber.ErrInternalServerError.Message
		if fe != nil {
			msg = fe.Message
		}
	}

	c.Status(code)
	if rerr := s.render(c, "error", fiber.Map{
		"Title":   utils.StatusMessage(code),
		"Status":  code,
		"Message": msg,
	}); rerr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "error page failed", slog.String("error", rerr.Error()))
		return c.Status(code).SendString(msg)
	}
	return nil
}
