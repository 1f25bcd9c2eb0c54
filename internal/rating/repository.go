package rating

import (
	"context"

	"gorm.io/gorm"

	"github.com/findone/findone-backend/internal/activity"
)

type Repository interface {
	CreateRating(ctx context.Context, r *UserRating) error
	RatingsForUser(ctx context.Context, email string) ([]UserRating, error)
	AttendanceRecord(ctx context.Context, activityID uint, email string) (*activity.AttendanceRecord, error)
	SaveAttendanceRecord(ctx context.Context, rec *activity.AttendanceRecord) error
	ActivityByID(ctx context.Context, id uint) (*activity.Activity, error)

	WithTx(fn func(Repository) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateRating(ctx context.Context, rating *UserRating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *repository) RatingsForUser(ctx context.Context, email string) ([]UserRating, error) {
	var ratings []UserRating
	err := r.db.WithContext(ctx).
		Where("target_email = ?", email).
		Order("created_at DESC").
		Find(&ratings).Error
	return ratings, err
}

func (r *repository) AttendanceRecord(ctx context.Context, activityID uint, email string) (*activity.AttendanceRecord, error) {
	var rec activity.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_email = ?", activityID, email).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) SaveAttendanceRecord(ctx context.Context, rec *activity.AttendanceRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *repository) ActivityByID(ctx context.Context, id uint) (*activity.Activity, error) {
	var a activity.Activity
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) WithTx(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}
