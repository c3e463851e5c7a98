package validation

import (
	"context"
	"strconv"
	"strings"
)

// Messages for the database-backed uniqueness checks.
const (
	UsernameTakenMessage = "That username is taken. Please choose a different one."
	EmailTakenMessage    = "That email is already registered. Please choose a different one."
)

// UserLookup answers the uniqueness questions asked during registration.
type UserLookup interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// RegistrationForm is submitted by /signup.
type RegistrationForm struct {
	Username        string `form:"username" validate:"required,between=2:20"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6,bcryptlen"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginForm is submitted by /login.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
}

// IssueForm is submitted by /post_issue. TotalSlots stays textual so a
// non-numeric entry is reported as a field error rather than a parse failure.
type IssueForm struct {
	Title       string `form:"title" validate:"required,between=5:100"`
	Description string `form:"description" validate:"required"`
	Category    string `form:"category" validate:"required,category"`
	TotalSlots  string `form:"total_slots" validate:"required,number,intmin=1"`
	Mode        string `form:"mode" validate:"required,max=20"`
}

// Slots returns the parsed slot count; call only after validation passed.
func (f *IssueForm) Slots() int {
	n, _ := strconv.Atoi(strings.TrimSpace(f.TotalSlots))
	return n
}

// CommentForm is submitted on an issue detail page.
type CommentForm struct {
	Content string `form:"content" validate:"required"`
}

// ValidateRegistration checks the form and, for fields that passed, that the
// username and email are not already registered.
func ValidateRegistration(ctx context.Context, form *RegistrationForm, lookup UserLookup) (Errors, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	errs := Struct(form)
	if errs == nil {
		errs = Errors{}
	}

	uniq, err := CheckUniqueness(ctx, form, lookup, errs)
	if err != nil {
		return nil, err
	}
	for f, m := range uniq {
		errs[f] = m
	}

	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

// CheckUniqueness runs the database lookups for the fields not listed in skip.
func CheckUniqueness(ctx context.Context, form *RegistrationForm, lookup UserLookup, skip Errors) (Errors, error) {
	errs := Errors{}
	if !skip.Has("username") {
		taken, err := lookup.UsernameExists(ctx, form.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["username"] = UsernameTakenMessage
		}
	}
	if !skip.Has("email") {
		taken, err := lookup.EmailExists(ctx, form.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["email"] = EmailTakenMessage
		}
	}
	return errs, nil
}

// ValidateLogin checks the login form shape.
func ValidateLogin(form *LoginForm) Errors {
	form.Email = strings.TrimSpace(form.Email)
	return Struct(form)
}

// ValidateIssue trims and checks an issue submission. Text is stored as
// typed; templates escape it on output.
func ValidateIssue(form *IssueForm) Errors {
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	form.Category = strings.TrimSpace(form.Category)
	form.TotalSlots = strings.TrimSpace(form.TotalSlots)
	form.Mode = strings.TrimSpace(form.Mode)
	return Struct(form)
}

// ValidateComment trims and checks a comment submission.
func ValidateComment(form *CommentForm) Errors {
	form.Content = strings.TrimSpace(form.Content)
	return Struct(form)
}
