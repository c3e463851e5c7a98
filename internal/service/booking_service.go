package service

import (
	"context"
	"errors"
	"log/slog"

	"civichub/internal/middleware"
	"civichub/internal/models"
	"civichub/internal/observability"
	"civichub/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// BookingService books slots on issues.
//
// By default the duplicate check, the capacity check and the insert are three
// separate statements, so concurrent requests on a nearly full issue can
// overbook it. With strict set, CreateWithinCapacity performs them under a
// row lock on the issue instead.
type BookingService struct {
	bookingRepo repository.BookingRepository
	issueRepo   repository.IssueRepository
	strict      bool
}

type BookSlotInput struct {
	UserID  uint
	IssueID uint
}

func NewBookingService(bookingRepo repository.BookingRepository, issueRepo repository.IssueRepository, strict bool) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		issueRepo:   issueRepo,
		strict:      strict,
	}
}

// BookSlot books one slot for the user. It returns models.ErrAlreadyBooked or
// models.ErrIssueFull when the booking is refused.
func (s *BookingService) BookSlot(ctx context.Context, in BookSlotInput) (*models.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "service", "BookSlot",
		observability.AttrIssueID.Int64(int64(in.IssueID)),
		observability.AttrUserID.Int64(int64(in.UserID)),
	)
	booking, err := s.book(ctx, in)

	outcome := observability.BookingOutcomeBooked
	switch {
	case errors.Is(err, models.ErrAlreadyBooked):
		outcome = observability.BookingOutcomeAlreadyBooked
	case errors.Is(err, models.ErrIssueFull):
		outcome = observability.BookingOutcomeFull
	case err != nil:
		outcome = observability.BookingOutcomeError
	}
	observability.BookingAttempts.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("booking.outcome", outcome))
	spanErr := err
	if outcome != observability.BookingOutcomeError {
		spanErr = nil
	}
	observability.EndSpan(span, spanErr)

	middleware.Logger.InfoContext(ctx, "slot booking",
		slog.Uint64("issue_id", uint64(in.IssueID)),
		slog.String("outcome", outcome),
		slog.Bool("strict", s.strict),
	)
	return booking, err
}

func (s *BookingService) book(ctx context.Context, in BookSlotInput) (*models.Booking, error) {
	issue, err := s.issueRepo.GetByID(ctx, in.IssueID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{UserID: in.UserID, IssueID: issue.ID}

	if s.strict {
		if err := s.bookingRepo.CreateWithinCapacity(ctx, booking); err != nil {
			return nil, err
		}
		return booking, nil
	}

	booked, err := s.bookingRepo.Exists(ctx, in.UserID, issue.ID)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, models.ErrAlreadyBooked
	}

	count, err := s.bookingRepo.CountForIssue(ctx, issue.ID)
	if err != nil {
		return nil, err
	}
	if count >= int64(issue.TotalSlots) {
		return nil, models.ErrIssueFull
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}
