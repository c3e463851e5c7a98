package service

import (
	"context"

	"civichub/internal/models"
	"civichub/internal/repository"
	"civichub/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	issueRepo   repository.IssueRepository
}

type CreateCommentInput struct {
	UserID  uint
	IssueID uint
	Form    *validation.CommentForm
}

func NewCommentService(commentRepo repository.CommentRepository, issueRepo repository.IssueRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		issueRepo:   issueRepo,
	}
}

// CreateComment validates and stores a comment on an existing issue.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.issueRepo.GetByID(ctx, in.IssueID); err != nil {
		return nil, err
	}
	if errs := validation.ValidateComment(in.Form); len(errs) > 0 {
		return nil, errs
	}

	comment := &models.Comment{
		Content:  in.Form.Content,
		AuthorID: in.UserID,
		IssueID:  in.IssueID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
