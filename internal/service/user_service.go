// Package service holds the business flows behind each page.
package service

import (
	"context"
	"errors"
	"log/slog"

	"civichub/internal/middleware"
	"civichub/internal/models"
	"civichub/internal/observability"
	"civichub/internal/repository"
	"civichub/internal/validation"
)

// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService struct {
	userRepo  repository.UserRepository
	issueRepo repository.IssueRepository
}

// Profile is what /profile/<username> shows.
type Profile struct {
	User   *models.User
	Issues []models.Issue
}

func NewUserService(userRepo repository.UserRepository, issueRepo repository.IssueRepository) *UserService {
	return &UserService{userRepo: userRepo, issueRepo: issueRepo}
}

// Register validates the form and creates a user with the default role.
// Field problems come back as validation.Errors.
func (s *UserService) Register(ctx context.Context, form *validation.RegistrationForm) (*models.User, error) {
	errs, err := validation.ValidateRegistration(ctx, form, s.userRepo)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		observability.SessionEvents.WithLabelValues("signup", "invalid").Inc()
		return nil, errs
	}

	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Role:     models.RoleUser,
	}
	if err := user.SetPassword(form.Password); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent signup claimed the username or email after validation.
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
			uniq, lookupErr := validation.CheckUniqueness(ctx, form, s.userRepo, nil)
			if lookupErr == nil && len(uniq) > 0 {
				return nil, uniq
			}
		}
		return nil, err
	}

	observability.SessionEvents.WithLabelValues("signup", "ok").Inc()
	middleware.Logger.InfoContext(ctx, "user registered",
		slog.Uint64("new_user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate returns the user whose email and password match the form.
func (s *UserService) Authenticate(ctx context.Context, form *validation.LoginForm) (*models.User, error) {
	if errs := validation.ValidateLogin(form); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.userRepo.GetByEmail(ctx, form.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.CheckPassword(form.Password) {
		observability.SessionEvents.WithLabelValues("login", "rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	observability.SessionEvents.WithLabelValues("login", "ok").Inc()
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Profile loads a user by name together with the issues they posted.
func (s *UserService) Profile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	issues, err := s.issueRepo.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Issues: issues}, nil
}

// Dashboard returns the issues posted by userID, newest first.
func (s *UserService) Dashboard(ctx context.Context, userID uint) ([]models.Issue, error) {
	return s.issueRepo.ListByAuthor(ctx, userID)
}

// SetRole changes the role of the named user.
func (s *UserService) SetRole(ctx context.Context, username, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.NewValidationError("role must be \"user\" or \"admin\"")
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

// ListAdmins returns every admin account ordered by username.
func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

// DeleteUser removes the named user and everything they own.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, user.ID)
}

func (s *UserService) findByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}
