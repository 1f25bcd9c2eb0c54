package notification

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, n *InAppNotification) error
	ListByUser(ctx context.Context, email string, limit int) ([]InAppNotification, error)
	MarkRead(ctx context.Context, id uint, email string) error
	MarkAllRead(ctx context.Context, email string) error
	CountUnread(ctx context.Context, email string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *InAppNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) ListByUser(ctx context.Context, email string, limit int) ([]InAppNotification, error) {
	var items []InAppNotification
	query := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *repository) MarkRead(ctx context.Context, id uint, email string) error {
	result := r.db.WithContext(ctx).Model(&InAppNotification{}).
		Where("id = ? AND user_email = ?", id, email).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Model(&InAppNotification{}).
		Where("user_email = ? AND is_read = ?", email, false).
		Update("is_read", true).Error
}

func (r *repository) CountUnread(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&InAppNotification{}).
		Where("user_email = ? AND is_read = ?", email, false).
		Count(&count).Error
	return count, err
}
