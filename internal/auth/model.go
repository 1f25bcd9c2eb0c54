package auth

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// User holds credentials plus the profile fields shown on the public card.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	FirstName    string         `gorm:"size:100;not null" json:"first_name"`
	LastName     string         `gorm:"size:100" json:"last_name"`
	Phone        string         `gorm:"size:30" json:"phone"`
	BirthDate    *time.Time     `json:"birth_date,omitempty"`
	Gender       string         `gorm:"size:20" json:"gender"`
	Bio          string         `gorm:"type:text" json:"bio"`
	Avatar       string         `gorm:"size:500" json:"avatar"`
	Location     string         `gorm:"size:255" json:"location"`
	IsVerified   bool           `gorm:"default:false" json:"is_verified"`
	Interests    datatypes.JSON `gorm:"type:jsonb" json:"interests"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// FullName joins first and last name for display and chat snapshots.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Initials returns up to two uppercase letters for avatar fallbacks.
func (u *User) Initials() string {
	parts := strings.Fields(u.FullName())
	switch len(parts) {
	case 0:
		if u.Email == "" {
			return "U"
		}
		return strings.ToUpper(u.Email[:1])
	case 1:
		return strings.ToUpper(parts[0][:1])
	default:
		return strings.ToUpper(parts[0][:1] + parts[len(parts)-1][:1])
	}
}
