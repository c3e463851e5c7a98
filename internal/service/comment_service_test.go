package service

import (
	"context"
	"testing"

	"civichub/internal/models"
	"civichub/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment(t *testing.T) {
	t.Parallel()

	var saved *models.Comment
	commentRepo := noopCommentRepo()
	commentRepo.createFn = func(_ context.Context, c *models.Comment) error {
		saved = c
		return nil
	}
	svc := NewCommentService(commentRepo, noopIssueRepo())

	comment, err := svc.CreateComment(context.Background(), CreateCommentInput{
		UserID:  4,
		IssueID: 2,
		Form:    &validation.CommentForm{Content: "  <b>Count me in</b> "},
	})
	require.NoError(t, err)

	assert.Same(t, saved, comment)
	assert.Equal(t, "<b>Count me in</b>", comment.Content)
	assert.Equal(t, uint(4), comment.AuthorID)
	assert.Equal(t, uint(2), comment.IssueID)
}

func TestCommentService_CreateComment_Empty(t *testing.T) {
	t.Parallel()

	commentRepo := noopCommentRepo()
	commentRepo.createFn = func(_ context.Context, _ *models.Comment) error {
		t.Fatal("Create must not be called for an empty comment")
		return nil
	}
	svc := NewCommentService(commentRepo, noopIssueRepo())

	_, err := svc.CreateComment(context.Background(), CreateCommentInput{
		UserID:  4,
		IssueID: 2,
		Form:    &validation.CommentForm{Content: "   "},
	})
	assertFieldErrors(t, err, "content")
}

func TestCommentService_CreateComment_MissingIssue(t *testing.T) {
	t.Parallel()

	issueRepo := noopIssueRepo()
	issueRepo.getByIDFn = func(_ context.Context, id uint) (*models.Issue, error) {
		return nil, models.NewNotFoundError("Issue", id)
	}
	svc := NewCommentService(noopCommentRepo(), issueRepo)

	// the missing issue wins over the empty form
	_, err := svc.CreateComment(context.Background(), CreateCommentInput{
		UserID:  4,
		IssueID: 404,
		Form:    &validation.CommentForm{},
	})
	assertAppErrorCode(t, err, models.CodeNotFound)
}
