package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/findone/findone-backend/utils"
)

// Event types published on the activity stream.
const (
	EventRequestApproved = "request.approved"
)

// ActivityEvent is the payload published when a join request is approved.
// The chat spawner consumes it to open the organizer↔participant chat.
type ActivityEvent struct {
	Type              string    `json:"type"`
	ActivityID        uint      `json:"activity_id"`
	ActivityTitle     string    `json:"activity_title"`
	OrganizerEmail    string    `json:"organizer_email"`
	OrganizerName     string    `json:"organizer_name"`
	OrganizerAvatar   string    `json:"organizer_avatar"`
	ParticipantEmail  string    `json:"participant_email"`
	ParticipantName   string    `json:"participant_name"`
	ParticipantAvatar string    `json:"participant_avatar"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// EventSink receives domain events after the owning transaction commits.
type EventSink interface {
	Publish(ctx context.Context, event ActivityEvent) error
}

// kafkaSink publishes events to the configured Kafka topic.
type kafkaSink struct{}

func NewKafkaSink() EventSink {
	return kafkaSink{}
}

func (kafkaSink) Publish(ctx context.Context, event ActivityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}
	key := fmt.Sprintf("activity-%d", event.ActivityID)
	if err := utils.Publish(ctx, key, payload); err != nil {
		return fmt.Errorf("publish activity event: %w", err)
	}
	return nil
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ctx context.Context, event ActivityEvent) error

func (f SinkFunc) Publish(ctx context.Context, event ActivityEvent) error {
	return f(ctx, event)
}

// logFailure is shared by services that treat event delivery as best-effort.
func logFailure(op string, err error) {
	if err != nil {
		log.Printf("activity: %s: %v", op, err)
	}
}
