package rating

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/findone/findone-backend/internal/auditlog"
)

var (
	ErrNotRatable   = errors.New("user has no attendance record for this activity")
	ErrAlreadyRated = errors.New("you already rated this user for this activity")
	ErrSelfRating   = errors.New("users cannot rate themselves")
	ErrInvalidScore = errors.New("score must be between 1 and 5")
)

// Rater identifies who is submitting a rating.
type Rater struct {
	ID     uint
	Email  string
	Name   string
	Avatar string
}

type Service struct {
	Repo  Repository
	Audit auditlog.Service
}

func NewService(repo Repository, audit auditlog.Service) *Service {
	return &Service{Repo: repo, Audit: audit}
}

// RateUser records one rating. All guards run inside the transaction:
// the target must have an attendance record for the activity, the rater
// must not have rated them there before, and self-rating is rejected.
func (s *Service) RateUser(ctx context.Context, rater Rater, input RateInput, ip string) (*UserRating, error) {
	if input.Score < 1 || input.Score > 5 {
		return nil, ErrInvalidScore
	}
	if rater.Email == input.TargetEmail {
		return nil, ErrSelfRating
	}

	var created *UserRating
	err := s.Repo.WithTx(func(tx Repository) error {
		rec, err := tx.AttendanceRecord(ctx, input.ActivityID, input.TargetEmail)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotRatable
			}
			return err
		}

		raters := decodeRaters(rec.RatedBy)
		for _, r := range raters {
			if r == rater.Email {
				return ErrAlreadyRated
			}
		}

		a, err := tx.ActivityByID(ctx, input.ActivityID)
		if err != nil {
			return err
		}

		raters = append(raters, rater.Email)
		encoded, err := json.Marshal(raters)
		if err != nil {
			return err
		}
		rec.RatedBy = datatypes.JSON(encoded)
		if err := tx.SaveAttendanceRecord(ctx, rec); err != nil {
			return err
		}

		created = &UserRating{
			TargetEmail:   input.TargetEmail,
			RaterEmail:    rater.Email,
			RaterName:     rater.Name,
			RaterAvatar:   rater.Avatar,
			Score:         input.Score,
			Comment:       input.Comment,
			ActivityID:    input.ActivityID,
			ActivityTitle: a.Title,
			Attended:      rec.Attended,
			OnTime:        rec.OnTime,
		}
		return tx.CreateRating(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		details := map[string]interface{}{"target": input.TargetEmail, "score": input.Score}
		if auditErr := s.Audit.LogAction(ctx, &rater.ID, &input.ActivityID, auditlog.ActionUserRate, details, ip, "success"); auditErr != nil {
			log.Printf("rating: audit: %v", auditErr)
		}
	}
	return created, nil
}

// GetStats recomputes the user's aggregates from the ratings they received.
// No incremental counters are kept, so the numbers can never drift.
func (s *Service) GetStats(ctx context.Context, email string) (*Stats, error) {
	ratings, err := s.Repo.RatingsForUser(ctx, email)
	if err != nil {
		return nil, err
	}

	stats := &Stats{AttendanceRate: 100, PunctualityRate: 100}
	if len(ratings) == 0 {
		return stats, nil
	}

	var scoreSum, attended, onTime int
	for _, r := range ratings {
		scoreSum += r.Score
		if r.Attended {
			attended++
			if r.OnTime {
				onTime++
			}
		}
	}

	stats.RatingCount = len(ratings)
	stats.AverageRating = float64(scoreSum) / float64(len(ratings))
	stats.AttendanceRate = int(math.Round(float64(attended) / float64(len(ratings)) * 100))
	if attended > 0 {
		// Only attended ratings count toward punctuality, so no-shows
		// cannot inflate the rate.
		stats.PunctualityRate = int(math.Round(float64(onTime) / float64(attended) * 100))
	}
	return stats, nil
}

// AverageFor satisfies the snapshot lookup used when a join request is created.
func (s *Service) AverageFor(ctx context.Context, email string) (float64, error) {
	stats, err := s.GetStats(ctx, email)
	if err != nil {
		return 0, err
	}
	return stats.AverageRating, nil
}

// ListRatings returns the ratings a user received, newest first.
func (s *Service) ListRatings(ctx context.Context, email string) ([]UserRating, error) {
	return s.Repo.RatingsForUser(ctx, email)
}

func decodeRaters(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var raters []string
	if err := json.Unmarshal(raw, &raters); err != nil {
		return nil
	}
	return raters
}
