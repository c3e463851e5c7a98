package repository

import (
	"context"
	"errors"

	"civichub/internal/models"
	"civichub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepository defines persistence operations for slot bookings.
type BookingRepository interface {
	// Exists reports whether userID already holds a booking on issueID.
	Exists(ctx context.Context, userID, issueID uint) (bool, error)
	// CountForIssue returns the number of bookings held on issueID.
	CountForIssue(ctx context.Context, issueID uint) (int64, error)
	Create(ctx context.Context, booking *models.Booking) error
	// CreateWithinCapacity locks the issue row, repeats the duplicate and
	// capacity checks and inserts in a single transaction.
	CreateWithinCapacity(ctx context.Context, booking *models.Booking) error
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository returns a new BookingRepository implementation.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Exists(ctx context.Context, userID, issueID uint) (bool, error) {
	return existsBooking(r.db.WithContext(ctx), userID, issueID)
}

func (r *bookingRepository) CountForIssue(ctx context.Context, issueID uint) (int64, error) {
	return countBookings(r.db.WithContext(ctx), issueID)
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "BookingCreate", "bookings")
	defer func() { observability.EndSpan(span, err) }()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bookingRepository) CreateWithinCapacity(ctx context.Context, booking *models.Booking) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "BookingCreateWithinCapacity", "bookings")
	defer func() {
		if errors.Is(err, models.ErrAlreadyBooked) || errors.Is(err, models.ErrIssueFull) {
			observability.EndSpan(span, nil)
			return
		}
		observability.EndSpan(span, err)
	}()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		// SQLite serialises writers itself and has no row locks.
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var issue models.Issue
		if err := query.Select("id", "total_slots").First(&issue, booking.IssueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Issue", booking.IssueID)
			}
			return err
		}

		booked, err := existsBooking(tx, booking.UserID, booking.IssueID)
		if err != nil {
			return err
		}
		if booked {
			return models.ErrAlreadyBooked
		}

		count, err := countBookings(tx, booking.IssueID)
		if err != nil {
			return err
		}
		if count >= int64(issue.TotalSlots) {
			return models.ErrIssueFull
		}

		return tx.Omit(clause.Associations).Create(booking).Error
	})
	if err == nil || errors.Is(err, models.ErrAlreadyBooked) || errors.Is(err, models.ErrIssueFull) {
		return err
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}

func existsBooking(db *gorm.DB, userID, issueID uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Booking{}).
		Where("user_id = ? AND issue_id = ?", userID, issueID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func countBookings(db *gorm.DB, issueID uint) (int64, error) {
	var count int64
	if err := db.Model(&models.Booking{}).Where("issue_id = ?", issueID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
