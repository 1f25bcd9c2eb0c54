package chat

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	CreateChat(ctx context.Context, c *Chat) error
	GetChatByID(ctx context.Context, id string) (*Chat, error)
	FindChatByActivityAndPair(ctx context.Context, activityID uint, emailA, emailB string) (*Chat, error)
	ChatsByUser(ctx context.Context, email string) ([]Chat, error)
	UpdateChat(ctx context.Context, c *Chat) error
	CountChatsByUser(ctx context.Context, email string) (int64, error)

	CreateMessage(ctx context.Context, m *Message) error
	MessagesByChat(ctx context.Context, chatID string) ([]Message, error)
	LastMessage(ctx context.Context, chatID string) (*Message, error)
	MarkMessagesRead(ctx context.Context, chatID, notSentBy string) error
	CountUnread(ctx context.Context, chatID, notSentBy string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateChat(ctx context.Context, c *Chat) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) GetChatByID(ctx context.Context, id string) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindChatByActivityAndPair(ctx context.Context, activityID uint, emailA, emailB string) (*Chat, error) {
	var c Chat
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_a_email = ? AND user_b_email = ?", activityID, emailA, emailB).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ChatsByUser(ctx context.Context, email string) ([]Chat, error) {
	var chats []Chat
	err := r.db.WithContext(ctx).
		Where("user_a_email = ? OR user_b_email = ?", email, email).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&chats).Error
	return chats, err
}

func (r *repository) UpdateChat(ctx context.Context, c *Chat) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *repository) CountChatsByUser(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Chat{}).
		Where("user_a_email = ? OR user_b_email = ?", email, email).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) MessagesByChat(ctx context.Context, chatID string) ([]Message, error) {
	var messages []Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (r *repository) LastMessage(ctx context.Context, chatID string) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) MarkMessagesRead(ctx context.Context, chatID, notSentBy string) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("chat_id = ? AND sender_email <> ? AND is_read = ?", chatID, notSentBy, false).
		Update("is_read", true).Error
}

func (r *repository) CountUnread(ctx context.Context, chatID, notSentBy string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("chat_id = ? AND sender_email <> ? AND is_read = ?", chatID, notSentBy, false).
		Count(&count).Error
	return count, err
}
