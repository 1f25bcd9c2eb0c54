package notification

import (
	"context"
)

type Service interface {
	CreateInApp(ctx context.Context, userEmail, title, message, category string) error
	ListByUser(ctx context.Context, email string, limit int) ([]InAppNotification, error)
	MarkRead(ctx context.Context, id uint, email string) error
	MarkAllRead(ctx context.Context, email string) error
	UnreadCount(ctx context.Context, email string) (int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateInApp(ctx context.Context, userEmail, title, message, category string) error {
	if category == "" {
		category = CategorySystem
	}
	return s.repo.Create(ctx, &InAppNotification{
		UserEmail: userEmail,
		Title:     title,
		Message:   message,
		Category:  category,
	})
}

func (s *service) ListByUser(ctx context.Context, email string, limit int) ([]InAppNotification, error) {
	return s.repo.ListByUser(ctx, email, limit)
}

func (s *service) MarkRead(ctx context.Context, id uint, email string) error {
	return s.repo.MarkRead(ctx, id, email)
}

func (s *service) MarkAllRead(ctx context.Context, email string) error {
	return s.repo.MarkAllRead(ctx, email)
}

func (s *service) UnreadCount(ctx context.Context, email string) (int64, error) {
	return s.repo.CountUnread(ctx, email)
}
