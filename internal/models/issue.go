package models

import "time"

// Issue is a posted civic problem with a fixed number of participation slots.
type Issue struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:120;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"size:50;not null" json:"category"`
	DatePosted  time.Time `gorm:"autoCreateTime;not null;index" json:"date_posted"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	TotalSlots  int       `gorm:"not null" json:"total_slots"`
	Mode        string    `gorm:"size:20;not null" json:"mode"`
}

// CategoryLabel is the display name of the issue's category.
func (i *Issue) CategoryLabel() string {
	return CategoryLabel(i.Category)
}
