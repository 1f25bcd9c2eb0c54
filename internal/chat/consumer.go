package chat

import (
	"context"
	"encoding/json"
	"log"

	"github.com/findone/findone-backend/internal/activity"
	"github.com/findone/findone-backend/utils"
)

// StartKafkaConsumer reads approval events and spawns chats until ctx ends.
// Run it in its own goroutine.
func StartKafkaConsumer(ctx context.Context, svc *Service) {
	if !utils.KafkaEnabled() {
		log.Println("chat: kafka not configured, consumer not started")
		return
	}
	reader := utils.NewKafkaReader("chat-spawner")
	defer reader.Close()

	log.Println("chat: kafka consumer started")
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("chat: read event: %v", err)
			continue
		}

		var event activity.ActivityEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("chat: decode event: %v", err)
			continue
		}
		handleEvent(ctx, svc, event)
	}
}

// NewDirectSink returns an in-process sink used when Kafka is not
// configured, so an approval still always yields a chat.
func NewDirectSink(svc *Service) activity.EventSink {
	return activity.SinkFunc(func(ctx context.Context, event activity.ActivityEvent) error {
		handleEvent(ctx, svc, event)
		return nil
	})
}

func handleEvent(ctx context.Context, svc *Service, event activity.ActivityEvent) {
	if event.Type != activity.EventRequestApproved {
		return
	}

	organizer := Participant{Email: event.OrganizerEmail, Name: event.OrganizerName, Avatar: event.OrganizerAvatar}
	participant := Participant{Email: event.ParticipantEmail, Name: event.ParticipantName, Avatar: event.ParticipantAvatar}

	if _, err := svc.CreateChat(ctx, event.ActivityID, event.ActivityTitle, organizer, participant); err != nil {
		log.Printf("chat: spawn for activity %d: %v", event.ActivityID, err)
		return
	}

	if svc.Notif != nil {
		msg := "A chat for \"" + event.ActivityTitle + "\" is ready."
		if err := svc.Notif.CreateInApp(ctx, event.ParticipantEmail, "Chat opened", msg, "chat"); err != nil {
			log.Printf("chat: notify %s: %v", event.ParticipantEmail, err)
		}
	}
}
