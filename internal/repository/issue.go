package repository

import (
	"context"
	"errors"

	"civichub/internal/models"
	"civichub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecentIssuesLimit is how many issues the home page shows.
const RecentIssuesLimit = 5

// IssueRepository defines persistence operations for issues.
type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id uint) (*models.Issue, error)
	ListRecent(ctx context.Context, limit int) ([]models.Issue, error)
	ListAll(ctx context.Context) ([]models.Issue, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Issue, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type issueRepository struct {
	db *gorm.DB
}

// NewIssueRepository returns a new IssueRepository implementation.
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(issue).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id uint) (*models.Issue, error) {
	var issue models.Issue
	if err := r.db.WithContext(ctx).Preload("Author").First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Issue", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &issue, nil
}

// newestFirst orders issues by post date, newest first, with id as tie-breaker.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("date_posted DESC, id DESC")
}

// ListRecent returns at most limit issues, newest first.
func (r *issueRepository) ListRecent(ctx context.Context, limit int) ([]models.Issue, error) {
	if limit <= 0 {
		limit = RecentIssuesLimit
	}
	var issues []models.Issue
	if err := r.db.WithContext(ctx).Scopes(newestFirst).Preload("Author").Limit(limit).Find(&issues).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return issues, nil
}

// ListAll returns every issue, newest first.
func (r *issueRepository) ListAll(ctx context.Context) ([]models.Issue, error) {
	var issues []models.Issue
	if err := r.db.WithContext(ctx).Scopes(newestFirst).Preload("Author").Find(&issues).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return issues, nil
}

// ListByAuthor returns the issues posted by authorID, newest first.
func (r *issueRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Issue, error) {
	var issues []models.Issue
	if err := r.db.WithContext(ctx).Scopes(newestFirst).Preload("Author").
		Where("author_id = ?", authorID).Find(&issues).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return issues, nil
}

func (r *issueRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Issue{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Delete removes the issue with its bookings and comments in one transaction.
func (r *issueRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "IssueDelete", "issues")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Issue{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Issue", id)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	return nil
}
