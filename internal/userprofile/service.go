package userprofile

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/findone/findone-backend/internal/activity"
	"github.com/findone/findone-backend/internal/auditlog"
	"github.com/findone/findone-backend/internal/auth"
	"github.com/findone/findone-backend/internal/chat"
	"github.com/findone/findone-backend/internal/rating"
)

var ErrProfileNotFound = errors.New("profile not found")

type Service struct {
	Repo       Repository
	Ratings    *rating.Service
	Activities *activity.Service
	Chats      *chat.Service
	Audit      auditlog.Service
}

func NewService(repo Repository, ratings *rating.Service, activities *activity.Service, chats *chat.Service, audit auditlog.Service) *Service {
	return &Service{Repo: repo, Ratings: ratings, Activities: activities, Chats: chats, Audit: audit}
}

// GetProfile returns the caller's own full profile.
func (s *Service) GetProfile(ctx context.Context, userID uint) (*auth.User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a partial update; only non-nil fields change.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput, ip string) (*auth.User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.BirthDate != nil {
		user.BirthDate = input.BirthDate
	}
	if input.Gender != nil {
		user.Gender = *input.Gender
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Location != nil {
		user.Location = *input.Location
	}
	if input.Interests != nil {
		encoded, err := json.Marshal(*input.Interests)
		if err != nil {
			return nil, err
		}
		user.Interests = datatypes.JSON(encoded)
	}

	if err := s.Repo.Save(ctx, user); err != nil {
		return nil, err
	}

	if s.Audit != nil {
		if auditErr := s.Audit.LogAction(ctx, &userID, nil, auditlog.ActionProfileUpdate, nil, ip, "success"); auditErr != nil {
			log.Printf("userprofile: audit: %v", auditErr)
		}
	}
	return user, nil
}

// GetPublicProfile builds the public card for a user: reputation stats plus
// counters derived from the activity and chat stores.
func (s *Service) GetPublicProfile(ctx context.Context, email string) (*PublicProfile, error) {
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	stats, err := s.Ratings.GetStats(ctx, email)
	if err != nil {
		return nil, err
	}

	created, err := s.Activities.CreatedBy(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	joined, err := s.Activities.JoinedBy(ctx, email)
	if err != nil {
		return nil, err
	}
	connections, err := s.Chats.ChatCountFor(ctx, email)
	if err != nil {
		return nil, err
	}

	var interests []string
	if len(user.Interests) > 0 {
		if err := json.Unmarshal(user.Interests, &interests); err != nil {
			interests = nil
		}
	}

	return &PublicProfile{
		Email:             user.Email,
		FullName:          user.FullName(),
		Initials:          user.Initials(),
		Avatar:            user.Avatar,
		Bio:               user.Bio,
		Location:          user.Location,
		Interests:         interests,
		Stats:             *stats,
		ActivitiesCreated: len(created),
		ActivitiesJoined:  len(joined),
		Connections:       connections,
		MemberSince:       user.CreatedAt,
	}, nil
}
