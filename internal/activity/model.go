package activity

import (
	"time"

	"gorm.io/datatypes"
)

// Activity categories and their closed subcategory lists.
const (
	CategorySports  = "sports"
	CategoryTravel  = "travel"
	CategoryLeisure = "leisure"
	CategoryStudies = "studies"
)

var Subcategories = map[string][]string{
	CategorySports:  {"Tenis", "Pádel", "Fútbol", "Squash", "Running", "Bicicleta", "Skate", "Roller", "Natación", "Voley", "Otros"},
	CategoryTravel:  {"Compañero de viaje", "Compartir ruta", "Escapadas", "Mochileros", "Road trips", "Camping"},
	CategoryLeisure: {"Cine", "Teatro", "Conciertos", "Museos", "Caminar", "Plaza", "Charlas", "Juegos de mesa"},
	CategoryStudies: {"Debates", "Grupos de lectura", "Intercambio de ideas", "Idiomas", "Tutorías", "Coworking"},
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	_, ok := Subcategories[c]
	return ok
}

// ValidSubcategory reports whether sub belongs to category c.
func ValidSubcategory(c, sub string) bool {
	for _, s := range Subcategories[c] {
		if s == sub {
			return true
		}
	}
	return false
}

// Join request lifecycle states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Age range bounds for activities that restrict by age.
const (
	AgeRangeMin = 18
	AgeRangeMax = 99
)

// Activity represents the activities table. Participants are not stored
// on the row: they are the set of approved join requests, so a participant
// always corresponds to exactly one approved request.
type Activity struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatorID     uint       `gorm:"not null;index" json:"creator_id"`
	CreatorEmail  string     `gorm:"size:255;not null" json:"creator_email"`
	CreatorName   string     `gorm:"size:255;not null" json:"creator_name"`
	CreatorAvatar string     `gorm:"size:512" json:"creator_avatar"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Category      string     `gorm:"size:20;not null;index" json:"category"`
	Subcategory   string     `gorm:"size:50;not null" json:"subcategory"`
	TimeLabel     string     `gorm:"size:100" json:"time_label"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Location      string     `gorm:"size:255;not null" json:"location"`
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
	Spots         int        `gorm:"not null" json:"spots"`
	SkillLevel    *int       `json:"skill_level,omitempty"` // sports only, 1..5
	AgeMin        *int       `json:"age_min,omitempty"`
	AgeMax        *int       `json:"age_max,omitempty"`
	Notes         string     `gorm:"type:text" json:"notes"`
	IsCompleted   bool       `gorm:"not null;default:false;index" json:"is_completed"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Activity) TableName() string {
	return "activities"
}

// JoinRequest represents the join_requests table. The unique index on
// (activity_id, user_email) enforces at most one request per user per
// activity regardless of status.
type JoinRequest struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ActivityID  uint       `gorm:"not null;uniqueIndex:idx_request_activity_user" json:"activity_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	UserEmail   string     `gorm:"size:255;not null;uniqueIndex:idx_request_activity_user;index" json:"user_email"`
	UserName    string     `gorm:"size:255;not null" json:"user_name"`
	UserAvatar  string     `gorm:"size:512" json:"user_avatar"`
	UserRating  float64    `json:"user_rating"` // snapshot at request time
	Status      string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}

// AttendanceRecord represents the attendance_records table, one row per
// (activity, participant). RatedBy holds the emails of raters who already
// scored this participant for this activity.
type AttendanceRecord struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ActivityID uint           `gorm:"not null;uniqueIndex:idx_attendance_activity_user" json:"activity_id"`
	UserEmail  string         `gorm:"size:255;not null;uniqueIndex:idx_attendance_activity_user;index" json:"user_email"`
	UserName   string         `gorm:"size:255" json:"user_name"`
	Attended   bool           `gorm:"not null;default:false" json:"attended"`
	OnTime     bool           `gorm:"not null;default:false" json:"on_time"`
	RatedBy    datatypes.JSON `gorm:"type:jsonb" json:"rated_by"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// Request/Response DTOs

type CreateActivityInput struct {
	Title       string     `json:"title" binding:"required"`
	Category    string     `json:"category" binding:"required"`
	Subcategory string     `json:"subcategory" binding:"required"`
	TimeLabel   string     `json:"time_label"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Location    string     `json:"location" binding:"required"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	Spots       int        `json:"spots" binding:"required"`
	SkillLevel  *int       `json:"skill_level"`
	AgeMin      *int       `json:"age_min"`
	AgeMax      *int       `json:"age_max"`
	Notes       string     `json:"notes"`
}

// ListFilter narrows List results; Lat/Lng switch on distance annotation.
type ListFilter struct {
	Category  string
	Completed *bool
	Search    string
	Lat       *float64
	Lng       *float64
	Nearest   bool
}

// ActivityResponse is an Activity plus the derived fields clients render.
type ActivityResponse struct {
	Activity
	Participants   []JoinRequest `json:"participants"`
	AvailableSpots int           `json:"available_spots"`
	Distance       *float64      `json:"distance_km,omitempty"`
	DistanceLabel  string        `json:"distance_label,omitempty"`
}
