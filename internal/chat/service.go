package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/findone/findone-backend/internal/notification"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotParticipant = errors.New("user is not a participant of this chat")
	ErrEmptyMessage   = errors.New("message content is empty")
)

type Service struct {
	Repo  Repository
	Notif notification.Service
}

func NewService(repo Repository, notif notification.Service) *Service {
	return &Service{Repo: repo, Notif: notif}
}

// CreateChat opens the conversation for an activity pair, at most once.
// The pair is normalized by email order, so repeated approvals or retried
// events return the existing chat instead of creating a duplicate.
func (s *Service) CreateChat(ctx context.Context, activityID uint, activityTitle string, a, b Participant) (*Chat, error) {
	first, second := a, b
	if strings.Compare(first.Email, second.Email) > 0 {
		first, second = second, first
	}

	existing, err := s.Repo.FindChatByActivityAndPair(ctx, activityID, first.Email, second.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &Chat{
		ID:            uuid.NewString(),
		ActivityID:    activityID,
		ActivityTitle: activityTitle,
		UserAEmail:    first.Email,
		UserAName:     first.Name,
		UserAAvatar:   first.Avatar,
		UserBEmail:    second.Email,
		UserBName:     second.Name,
		UserBAvatar:   second.Avatar,
	}
	if err := s.Repo.CreateChat(ctx, c); err != nil {
		// Lost a race with a concurrent spawn; the unique index kept one row.
		if fallback, findErr := s.Repo.FindChatByActivityAndPair(ctx, activityID, first.Email, second.Email); findErr == nil {
			return fallback, nil
		}
		return nil, err
	}
	return c, nil
}

// SendMessage appends an unread message and bumps the chat's activity time.
func (s *Service) SendMessage(ctx context.Context, chatID, senderEmail, senderName, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	c, err := s.Repo.GetChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !c.HasParticipant(senderEmail) {
		return nil, ErrNotParticipant
	}

	m := &Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		Content:     content,
	}
	if err := s.Repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	now := time.Now()
	c.LastMessageAt = &now
	if err := s.Repo.UpdateChat(ctx, c); err != nil {
		log.Printf("chat: bump last message time: %v", err)
	}
	return m, nil
}

// GetChatByID returns the chat with its messages; participants only.
func (s *Service) GetChatByID(ctx context.Context, chatID, userEmail string) (*Chat, []Message, error) {
	c, err := s.Repo.GetChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrChatNotFound
		}
		return nil, nil, err
	}
	if !c.HasParticipant(userEmail) {
		return nil, nil, ErrNotParticipant
	}

	messages, err := s.Repo.MessagesByChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	return c, messages, nil
}

// GetChatsByUser lists the user's conversations with inbox annotations.
func (s *Service) GetChatsByUser(ctx context.Context, email string) ([]ChatResponse, error) {
	chats, err := s.Repo.ChatsByUser(ctx, email)
	if err != nil {
		return nil, err
	}

	out := make([]ChatResponse, 0, len(chats))
	for _, c := range chats {
		resp := ChatResponse{Chat: c}
		if last, err := s.Repo.LastMessage(ctx, c.ID); err == nil {
			resp.LastMessage = last
		}
		unread, err := s.Repo.CountUnread(ctx, c.ID, email)
		if err != nil {
			return nil, err
		}
		resp.UnreadCount = unread
		out = append(out, resp)
	}
	return out, nil
}

// MarkMessagesAsRead marks every message the user did not send as read.
func (s *Service) MarkMessagesAsRead(ctx context.Context, chatID, userEmail string) error {
	c, err := s.Repo.GetChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	if !c.HasParticipant(userEmail) {
		return ErrNotParticipant
	}
	return s.Repo.MarkMessagesRead(ctx, chatID, userEmail)
}

// GetUnreadCount sums unread messages addressed to the user across chats.
func (s *Service) GetUnreadCount(ctx context.Context, email string) (int64, error) {
	chats, err := s.Repo.ChatsByUser(ctx, email)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, c := range chats {
		unread, err := s.Repo.CountUnread(ctx, c.ID, email)
		if err != nil {
			return 0, err
		}
		total += unread
	}
	return total, nil
}

// ChatCountFor reports how many conversations the user has. The profile
// card shows it as the connection count.
func (s *Service) ChatCountFor(ctx context.Context, email string) (int64, error) {
	return s.Repo.CountChatsByUser(ctx, email)
}
