package server

import (
	"errors"
	"fmt"

	"civichub/internal/models"
	"civichub/internal/service"
	"civichub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET / and GET /index
func (s *Server) Index(c *fiber.Ctx) error {
	issues, err := s.issueService.RecentIssues(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, "index", fiber.Map{
		"Issues": issues,
	})
}

// Issues handles GET /issues
func (s *Server) Issues(c *fiber.Ctx) error {
	issues, err := s.issueService.AllIssues(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, "issues", fiber.Map{
		"Title":  "All Issues",
		"Issues": issues,
	})
}

// IssueDetail handles GET /issue/:id
func (s *Server) IssueDetail(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	return s.renderIssueDetail(c, id, &validation.CommentForm{}, nil)
}

// PostComment handles POST /issue/:id
func (s *Server) PostComment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var form validation.CommentForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	// Anonymous posts still get the 404 and the form errors before the login redirect.
	user := currentUser(c)
	if user == nil {
		if _, err := s.issueService.GetIssue(c.UserContext(), id); err != nil {
			return err
		}
		if errs := validation.ValidateComment(&form); len(errs) > 0 {
			return s.renderIssueDetail(c, id, &form, errs)
		}
		s.flash(c, flashInfo, "You must be logged in to comment.")
		return c.Redirect("/login")
	}

	_, err = s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  user.ID,
		IssueID: id,
		Form:    &form,
	})
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return s.renderIssueDetail(c, id, &form, fieldErrs)
	}
	if err != nil {
		return err
	}

	s.flash(c, flashSuccess, "Your comment has been published.")
	return c.Redirect(issuePath(id))
}

func (s *Server) renderIssueDetail(c *fiber.Ctx, id uint, form *validation.CommentForm, errs validation.Errors) error {
	var viewerID uint
	if user := currentUser(c); user != nil {
		viewerID = user.ID
	}

	detail, err := s.issueService.Detail(c.UserContext(), id, viewerID)
	if err != nil {
		return err
	}

	return s.render(c, "issue_detail", fiber.Map{
		"Title":  detail.Issue.Title,
		"Detail": detail,
		"Form":   form,
		"Errors": errs,
	})
}

// NewIssuePage handles GET /post_issue
func (s *Server) NewIssuePage(c *fiber.Ctx) error {
	return s.renderIssueForm(c, &validation.IssueForm{TotalSlots: "1"}, nil)
}

// PostIssue handles POST /post_issue
func (s *Server) PostIssue(c *fiber.Ctx) error {
	var form validation.IssueForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	issue, err := s.issueService.PostIssue(c.UserContext(), currentUser(c).ID, &form)
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return s.renderIssueForm(c, &form, fieldErrs)
	}
	if err != nil {
		return err
	}

	s.flash(c, flashSuccess, "Your issue has been posted!")
	return c.Redirect(issuePath(issue.ID))
}

func (s *Server) renderIssueForm(c *fiber.Ctx, form *validation.IssueForm, errs validation.Errors) error {
	return s.render(c, "post_issue", fiber.Map{
		"Title":  "New Issue",
		"Form":   form,
		"Errors": errs,
	})
}

// BookSlot handles POST /book_slot/:id
func (s *Server) BookSlot(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	_, err = s.bookingService.BookSlot(c.UserContext(), service.BookSlotInput{
		UserID:  currentUser(c).ID,
		IssueID: id,
	})
	switch {
	case errors.Is(err, models.ErrAlreadyBooked):
		s.flash(c, flashInfo, "You have already booked a slot for this event.")
	case errors.Is(err, models.ErrIssueFull):
		s.flash(c, flashDanger, "Sorry, all slots for this event are booked.")
	case err != nil:
		return err
	default:
		s.flash(c, flashSuccess, "Your slot has been successfully booked!")
	}
	return c.Redirect(issuePath(id))
}

// DeleteIssue handles POST /issue/:id/delete
func (s *Server) DeleteIssue(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := s.issueService.DeleteIssue(c.UserContext(), service.DeleteIssueInput{
		UserID:  currentUser(c).ID,
		IssueID: id,
	}); err != nil {
		return err
	}

	s.flash(c, flashSuccess, "Your post has been deleted!")
	return c.Redirect("/issues")
}

// parseID reads the :id route parameter. Anything that is not a positive id is a 404.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

func issuePath(id uint) string {
	return fmt.Sprintf("/issue/%d", id)
}
