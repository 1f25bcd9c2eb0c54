package userprofile

import (
	"context"

	"gorm.io/gorm"

	"github.com/findone/findone-backend/internal/auth"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*auth.User, error)
	GetByEmail(ctx context.Context, email string) (*auth.User, error)
	Save(ctx context.Context, user *auth.User) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*auth.User, error) {
	var user auth.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var user auth.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Save(ctx context.Context, user *auth.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
