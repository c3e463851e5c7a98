package models

import (
	"errors"
	"time"
)

// Booking is one user's claim on one slot of an issue.
// Uniqueness per (user, issue) is checked by the booking service, not by an index.
type Booking struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	IssueID    uint      `gorm:"not null;index" json:"issue_id"`
	Issue      *Issue    `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE" json:"-"`
	DateBooked time.Time `gorm:"autoCreateTime;not null" json:"date_booked"`
}

// Booking rejections. Both are recoverable and leave the database untouched.
var (
	ErrAlreadyBooked = errors.New("user already holds a booking for this issue")
	ErrIssueFull     = errors.New("all slots for this issue are booked")
)
