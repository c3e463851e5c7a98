package models

import "time"

// Comment is a remark left by a user on an issue.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	DatePosted time.Time `gorm:"autoCreateTime;not null;index" json:"date_posted"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Author     User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	IssueID    uint      `gorm:"not null;index" json:"issue_id"`
	Issue      *Issue    `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE" json:"-"`
}
