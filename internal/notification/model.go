package notification

import (
	"time"
)

// Notification categories shown in the client inbox.
const (
	CategoryRequest = "request"
	CategoryChat    = "chat"
	CategorySystem  = "system"
)

// InAppNotification represents the notifications table.
type InAppNotification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserEmail string    `gorm:"size:255;not null;index" json:"user_email"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Category  string    `gorm:"size:20;not null;default:system" json:"category"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (InAppNotification) TableName() string {
	return "notifications"
}
