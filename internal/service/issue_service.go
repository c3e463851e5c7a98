package service

import (
	"context"
	"log/slog"

	"civichub/internal/middleware"
	"civichub/internal/models"
	"civichub/internal/repository"
	"civichub/internal/validation"
)

type IssueService struct {
	issueRepo   repository.IssueRepository
	commentRepo repository.CommentRepository
	bookingRepo repository.BookingRepository
}

// IssueDetail is everything the issue page needs, computed per request.
type IssueDetail struct {
	Issue          *models.Issue
	Comments       []models.Comment
	BookedCount    int64
	RemainingSlots int
	UserHasBooked  bool
	IsAuthor       bool
}

type DeleteIssueInput struct {
	UserID  uint
	IssueID uint
}

func NewIssueService(
	issueRepo repository.IssueRepository,
	commentRepo repository.CommentRepository,
	bookingRepo repository.BookingRepository,
) *IssueService {
	return &IssueService{
		issueRepo:   issueRepo,
		commentRepo: commentRepo,
		bookingRepo: bookingRepo,
	}
}

// PostIssue validates the form and stores a new issue authored by authorID.
func (s *IssueService) PostIssue(ctx context.Context, authorID uint, form *validation.IssueForm) (*models.Issue, error) {
	if errs := validation.ValidateIssue(form); len(errs) > 0 {
		return nil, errs
	}

	issue := &models.Issue{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		TotalSlots:  form.Slots(),
		Mode:        form.Mode,
		AuthorID:    authorID,
	}
	if err := s.issueRepo.Create(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

func (s *IssueService) GetIssue(ctx context.Context, id uint) (*models.Issue, error) {
	return s.issueRepo.GetByID(ctx, id)
}

// RecentIssues returns the issues shown on the home page.
func (s *IssueService) RecentIssues(ctx context.Context) ([]models.Issue, error) {
	return s.issueRepo.ListRecent(ctx, repository.RecentIssuesLimit)
}

func (s *IssueService) AllIssues(ctx context.Context) ([]models.Issue, error) {
	return s.issueRepo.ListAll(ctx)
}

// Detail loads an issue with its comments and booking state for viewerID (0 when anonymous).
func (s *IssueService) Detail(ctx context.Context, issueID, viewerID uint) (*IssueDetail, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	booked, err := s.bookingRepo.CountForIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	detail := &IssueDetail{
		Issue:          issue,
		Comments:       comments,
		BookedCount:    booked,
		RemainingSlots: issue.TotalSlots - int(booked),
		IsAuthor:       viewerID != 0 && viewerID == issue.AuthorID,
	}

	if viewerID != 0 {
		detail.UserHasBooked, err = s.bookingRepo.Exists(ctx, viewerID, issueID)
		if err != nil {
			return nil, err
		}
	}

	return detail, nil
}

// DeleteIssue removes an issue and its comments and bookings. Only the author may do so.
func (s *IssueService) DeleteIssue(ctx context.Context, in DeleteIssueInput) error {
	issue, err := s.issueRepo.GetByID(ctx, in.IssueID)
	if err != nil {
		return err
	}
	if issue.AuthorID != in.UserID {
		return models.NewForbiddenError("Only the author can delete this issue")
	}

	if err := s.issueRepo.Delete(ctx, in.IssueID); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "issue deleted", slog.Uint64("issue_id", uint64(in.IssueID)))
	return nil
}
