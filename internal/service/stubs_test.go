package service

import (
	"context"
	"errors"
	"testing"

	"civichub/internal/models"
	"civichub/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// issueRepoStub is a stub for repository.IssueRepository.
type issueRepoStub struct {
	createFn       func(context.Context, *models.Issue) error
	getByIDFn      func(context.Context, uint) (*models.Issue, error)
	listRecentFn   func(context.Context, int) ([]models.Issue, error)
	listAllFn      func(context.Context) ([]models.Issue, error)
	listByAuthorFn func(context.Context, uint) ([]models.Issue, error)
	countFn        func(context.Context) (int64, error)
	deleteFn       func(context.Context, uint) error
}

func (s *issueRepoStub) Create(ctx context.Context, issue *models.Issue) error {
	return s.createFn(ctx, issue)
}
func (s *issueRepoStub) GetByID(ctx context.Context, id uint) (*models.Issue, error) {
	return s.getByIDFn(ctx, id)
}
func (s *issueRepoStub) ListRecent(ctx context.Context, limit int) ([]models.Issue, error) {
	return s.listRecentFn(ctx, limit)
}
func (s *issueRepoStub) ListAll(ctx context.Context) ([]models.Issue, error) {
	return s.listAllFn(ctx)
}
func (s *issueRepoStub) ListByAuthor(ctx context.Context, authorID uint) ([]models.Issue, error) {
	return s.listByAuthorFn(ctx, authorID)
}
func (s *issueRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *issueRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopIssueRepo() *issueRepoStub {
	return &issueRepoStub{
		createFn: func(_ context.Context, issue *models.Issue) error {
			issue.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Issue, error) {
			return &models.Issue{ID: id, AuthorID: 1, TotalSlots: 3}, nil
		},
		listRecentFn:   func(_ context.Context, _ int) ([]models.Issue, error) { return nil, nil },
		listAllFn:      func(_ context.Context) ([]models.Issue, error) { return nil, nil },
		listByAuthorFn: func(_ context.Context, _ uint) ([]models.Issue, error) { return nil, nil },
		countFn:        func(_ context.Context) (int64, error) { return 0, nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	listByIssueFn func(context.Context, uint) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByIssue(ctx context.Context, issueID uint) ([]models.Comment, error) {
	return s.listByIssueFn(ctx, issueID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		listByIssueFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return nil, nil },
	}
}

// bookingRepoStub is a stub for repository.BookingRepository.
type bookingRepoStub struct {
	existsFn               func(context.Context, uint, uint) (bool, error)
	countForIssueFn        func(context.Context, uint) (int64, error)
	createFn               func(context.Context, *models.Booking) error
	createWithinCapacityFn func(context.Context, *models.Booking) error
}

func (s *bookingRepoStub) Exists(ctx context.Context, userID, issueID uint) (bool, error) {
	return s.existsFn(ctx, userID, issueID)
}
func (s *bookingRepoStub) CountForIssue(ctx context.Context, issueID uint) (int64, error) {
	return s.countForIssueFn(ctx, issueID)
}
func (s *bookingRepoStub) Create(ctx context.Context, booking *models.Booking) error {
	return s.createFn(ctx, booking)
}
func (s *bookingRepoStub) CreateWithinCapacity(ctx context.Context, booking *models.Booking) error {
	return s.createWithinCapacityFn(ctx, booking)
}

func noopBookingRepo() *bookingRepoStub {
	return &bookingRepoStub{
		existsFn:               func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		countForIssueFn:        func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		createFn:               func(_ context.Context, _ *models.Booking) error { return nil },
		createWithinCapacityFn: func(_ context.Context, _ *models.Booking) error { return nil },
	}
}

// MockUserRepository is a testify mock of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uint, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) ListNewestFirst(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// assertFieldErrors asserts that err is validation.Errors carrying exactly fields.
func assertFieldErrors(t *testing.T, err error, fields ...string) validation.Errors {
	t.Helper()
	require.Error(t, err)
	var errs validation.Errors
	require.True(t, errors.As(err, &errs), "expected validation.Errors, got %T: %v", err, err)
	for _, f := range fields {
		assert.True(t, errs.Has(f), "missing error for %q in %v", f, errs)
	}
	assert.Len(t, errs, len(fields))
	return errs
}

// assertAppErrorCode asserts that err is an AppError with the given code.
func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
