package chat

import (
	"time"
)

// Chat represents the chats table: one conversation between the organizer
// and an approved participant, keyed by activity. The pair is stored in a
// canonical order so the same two people get the same chat regardless of
// who triggered the spawn.
type Chat struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ActivityID     uint       `gorm:"not null;index:idx_chat_activity_pair,unique" json:"activity_id"`
	ActivityTitle  string     `gorm:"size:255" json:"activity_title"`
	UserAEmail     string     `gorm:"size:255;not null;index:idx_chat_activity_pair,unique" json:"user_a_email"`
	UserAName      string     `gorm:"size:255" json:"user_a_name"`
	UserAAvatar    string     `gorm:"size:512" json:"user_a_avatar"`
	UserBEmail     string     `gorm:"size:255;not null;index:idx_chat_activity_pair,unique" json:"user_b_email"`
	UserBName      string     `gorm:"size:255" json:"user_b_name"`
	UserBAvatar    string     `gorm:"size:512" json:"user_b_avatar"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
}

func (Chat) TableName() string {
	return "chats"
}

// HasParticipant reports whether email belongs to the conversation.
func (c *Chat) HasParticipant(email string) bool {
	return c.UserAEmail == email || c.UserBEmail == email
}

// Message represents the messages table.
type Message struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID      string    `gorm:"size:36;not null;index" json:"chat_id"`
	SenderEmail string    `gorm:"size:255;not null" json:"sender_email"`
	SenderName  string    `gorm:"size:255" json:"sender_name"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsRead      bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Participant carries the identity fields a chat stores per side.
type Participant struct {
	Email  string
	Name   string
	Avatar string
}

// ChatResponse adds derived inbox fields to a chat.
type ChatResponse struct {
	Chat
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int64    `json:"unread_count"`
}
