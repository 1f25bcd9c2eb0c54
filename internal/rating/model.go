package rating

import (
	"time"
)

// UserRating represents the user_ratings table. Attended/OnTime are copied
// from the attendance record at rating time so stats survive activity edits.
type UserRating struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TargetEmail   string    `gorm:"size:255;not null;index" json:"target_email"`
	RaterEmail    string    `gorm:"size:255;not null" json:"rater_email"`
	RaterName     string    `gorm:"size:255;not null" json:"rater_name"`
	RaterAvatar   string    `gorm:"size:512" json:"rater_avatar"`
	Score         int       `gorm:"not null" json:"score"` // 1..5
	Comment       string    `gorm:"type:text" json:"comment"`
	ActivityID    uint      `gorm:"not null;index" json:"activity_id"`
	ActivityTitle string    `gorm:"size:255" json:"activity_title"`
	Attended      bool      `gorm:"not null" json:"attended"`
	OnTime        bool      `gorm:"not null" json:"on_time"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (UserRating) TableName() string {
	return "user_ratings"
}

// RateInput is the payload for rating a participant.
type RateInput struct {
	ActivityID  uint   `json:"activity_id" binding:"required"`
	TargetEmail string `json:"target_email" binding:"required,email"`
	Score       int    `json:"score" binding:"required"`
	Comment     string `json:"comment"`
}

// Stats aggregates a user's reputation. Rates default to 100 when there is
// nothing to average so new users start with a clean card.
type Stats struct {
	AverageRating   float64 `json:"average_rating"`
	RatingCount     int     `json:"rating_count"`
	AttendanceRate  int     `json:"attendance_rate"`
	PunctualityRate int     `json:"punctuality_rate"`
}
