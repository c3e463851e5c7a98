package server

import (
	"errors"
	"log/slog"

	"civichub/internal/middleware"
	"civichub/internal/service"
	"civichub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return s.renderLogin(c, &validation.LoginForm{}, nil)
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}

	var form validation.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	user, err := s.userService.Authenticate(c.UserContext(), &form)
	var fieldErrs validation.Errors
	switch {
	case errors.As(err, &fieldErrs):
		return s.renderLogin(c, &form, fieldErrs)
	case errors.Is(err, service.ErrInvalidCredentials):
		s.flash(c, flashDanger, "Login Unsuccessful. Please check email and password")
		return s.renderLogin(c, &form, nil)
	case err != nil:
		return err
	}

	if err := s.issueSession(c, user, form.Remember); err != nil {
		return err
	}

	middleware.Logger.InfoContext(middleware.WithUserID(c.UserContext(), user.ID), "user logged in",
		slog.Bool("remember", form.Remember),
	)
	return c.Redirect(safeNext(c.Query("next"), "/dashboard"))
}

func (s *Server) renderLogin(c *fiber.Ctx, form *validation.LoginForm, errs validation.Errors) error {
	form.Password = ""
	return s.render(c, "login", fiber.Map{
		"Title":  "Login",
		"Form":   form,
		"Errors": errs,
		"Next":   c.Query("next"),
	})
}

// SignupPage handles GET /signup
func (s *Server) SignupPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return s.renderSignup(c, &validation.RegistrationForm{}, nil)
}

// Signup handles POST /signup
func (s *Server) Signup(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}

	var form validation.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	_, err := s.userService.Register(c.UserContext(), &form)
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return s.renderSignup(c, &form, fieldErrs)
	}
	if err != nil {
		return err
	}

	s.flash(c, flashSuccess, "Your account has been created! You are now able to log in")
	return c.Redirect("/login")
}

func (s *Server) renderSignup(c *fiber.Ctx, form *validation.RegistrationForm, errs validation.Errors) error {
	form.Password = ""
	form.ConfirmPassword = ""
	return s.render(c, "signup", fiber.Map{
		"Title":  "Sign Up",
		"Form":   form,
		"Errors": errs,
	})
}

// Logout handles GET /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	s.endSession(c)
	return c.Redirect("/")
}
