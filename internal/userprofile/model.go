package userprofile

import (
	"time"

	"github.com/findone/findone-backend/internal/rating"
)

// UpdateProfileInput carries the mutable demographic fields. Nil pointers
// leave the stored value untouched.
type UpdateProfileInput struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Phone     *string    `json:"phone"`
	BirthDate *time.Time `json:"birth_date"`
	Gender    *string    `json:"gender"`
	Bio       *string    `json:"bio"`
	Avatar    *string    `json:"avatar"`
	Location  *string    `json:"location"`
	Interests *[]string  `json:"interests"`
}

// PublicProfile is the card other users see: identity plus reputation,
// without contact details.
type PublicProfile struct {
	Email             string        `json:"email"`
	FullName          string        `json:"full_name"`
	Initials          string        `json:"initials"`
	Avatar            string        `json:"avatar"`
	Bio               string        `json:"bio"`
	Location          string        `json:"location"`
	Interests         []string      `json:"interests"`
	Stats             rating.Stats  `json:"stats"`
	ActivitiesCreated int           `json:"activities_created"`
	ActivitiesJoined  int           `json:"activities_joined"`
	Connections       int64         `json:"connections"`
	MemberSince       time.Time     `json:"member_since"`
}
