package server

import (
	"github.com/gofiber/fiber/v2"
)

// Dashboard handles GET /dashboard
func (s *Server) Dashboard(c *fiber.Ctx) error {
	issues, err := s.userService.Dashboard(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return s.render(c, "dashboard", fiber.Map{
		"Title":  "Dashboard",
		"Issues": issues,
	})
}

// Profile handles GET /profile/:username
func (s *Server) Profile(c *fiber.Ctx) error {
	profile, err := s.userService.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return s.render(c, "profile", fiber.Map{
		"Title":   profile.User.Username,
		"Profile": profile,
	})
}

// AdminPanel handles GET /admin
func (s *Server) AdminPanel(c *fiber.Ctx) error {
	overview, err := s.adminService.Overview(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, "admin", fiber.Map{
		"Title":    "Admin Panel",
		"Overview": overview,
	})
}

// About handles GET /about
func (s *Server) About(c *fiber.Ctx) error {
	return s.render(c, "about", fiber.Map{"Title": "About"})
}

// Contact handles GET /contact
func (s *Server) Contact(c *fiber.Ctx) error {
	return s.render(c, "contact", fiber.Map{"Title": "Contact"})
}
