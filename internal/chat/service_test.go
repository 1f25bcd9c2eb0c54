package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/findone/findone-backend/internal/activity"
	"github.com/findone/findone-backend/internal/notification"
)

func newTestService(t *testing.T) (*Service, notification.Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Chat{}, &Message{}, &notification.InAppNotification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	notifRepo := notification.NewRepository(db)
	return NewService(NewRepository(db), notification.NewService(notifRepo)), notifRepo
}

var (
	ana   = Participant{Email: "ana@example.com", Name: "Ana García"}
	bruno = Participant{Email: "bruno@example.com", Name: "Bruno Díaz"}
)

func TestCreateChatIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateChat(ctx, 1, "Pádel en Palermo", ana, bruno)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Same pair in reverse order resolves to the same conversation.
	second, err := svc.CreateChat(ctx, 1, "Pádel en Palermo", bruno, ana)
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same chat, got %s and %s", first.ID, second.ID)
	}

	// A different activity spawns a distinct chat for the same pair.
	other, err := svc.CreateChat(ctx, 2, "Cine", ana, bruno)
	if err != nil {
		t.Fatalf("other activity: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("expected a new chat per activity")
	}
}

func TestSendMessageGuards(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, _ := svc.CreateChat(ctx, 1, "Pádel", ana, bruno)

	if _, err := svc.SendMessage(ctx, c.ID, "intruder@example.com", "Inés", "hola"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := svc.SendMessage(ctx, c.ID, ana.Email, ana.Name, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := svc.SendMessage(ctx, "missing", ana.Email, ana.Name, "hola"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}

	msg, err := svc.SendMessage(ctx, c.ID, ana.Email, ana.Name, "¿arrancamos 10:00?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.IsRead {
		t.Fatal("new messages start unread")
	}

	stored, err := svc.Repo.GetChatByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if stored.LastMessageAt == nil {
		t.Fatal("expected last message timestamp")
	}
}

func TestUnreadFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c1, _ := svc.CreateChat(ctx, 1, "Pádel", ana, bruno)
	c2, _ := svc.CreateChat(ctx, 2, "Cine", ana, bruno)

	for i := 0; i < 2; i++ {
		if _, err := svc.SendMessage(ctx, c1.ID, ana.Email, ana.Name, "hola"); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if _, err := svc.SendMessage(ctx, c2.ID, ana.Email, ana.Name, "vamos?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendMessage(ctx, c1.ID, bruno.Email, bruno.Name, "buenas"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Bruno sees Ana's three messages; his own reply does not count.
	total, err := svc.GetUnreadCount(ctx, bruno.Email)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 unread, got %d", total)
	}

	chats, err := svc.GetChatsByUser(ctx, bruno.Email)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats))
	}
	for _, chatResp := range chats {
		if chatResp.LastMessage == nil {
			t.Fatalf("expected last message on %s", chatResp.ID)
		}
	}

	if err := svc.MarkMessagesAsRead(ctx, c1.ID, bruno.Email); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	total, _ = svc.GetUnreadCount(ctx, bruno.Email)
	if total != 1 {
		t.Fatalf("expected 1 unread after marking c1, got %d", total)
	}

	// Ana still has Bruno's reply unread; marking must not touch it.
	anaUnread, _ := svc.GetUnreadCount(ctx, ana.Email)
	if anaUnread != 1 {
		t.Fatalf("expected 1 unread for ana, got %d", anaUnread)
	}
}

func TestDirectSinkSpawnsChatAndNotifies(t *testing.T) {
	svc, notifRepo := newTestService(t)
	ctx := context.Background()

	sink := NewDirectSink(svc)
	event := activity.ActivityEvent{
		Type:             activity.EventRequestApproved,
		ActivityID:       7,
		ActivityTitle:    "Running en Costanera",
		OrganizerEmail:   ana.Email,
		OrganizerName:    ana.Name,
		ParticipantEmail: bruno.Email,
		ParticipantName:  bruno.Name,
	}
	if err := sink.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// Redelivery is harmless.
	if err := sink.Publish(ctx, event); err != nil {
		t.Fatalf("republish: %v", err)
	}

	chats, err := svc.GetChatsByUser(ctx, bruno.Email)
	if err != nil {
		t.Fatalf("chats: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("expected one spawned chat, got %d", len(chats))
	}
	if chats[0].ActivityID != 7 {
		t.Fatalf("unexpected chat: %+v", chats[0])
	}

	count, err := notifRepo.CountUnread(ctx, bruno.Email)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected chat notifications, got %d", count)
	}
}
