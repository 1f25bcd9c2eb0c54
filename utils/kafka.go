package utils

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	kafkaWriter *kafka.Writer
	kafkaTopic  string
)

var ErrKafkaDisabled = errors.New("kafka not configured")

// InitializeKafka sets up the shared writer for activity domain events.
// When KAFKA_BROKERS is unset the app runs without a broker and callers
// fall back to in-process dispatch.
func InitializeKafka() {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		log.Println("KAFKA_BROKERS not set, running without Kafka")
		return
	}

	kafkaTopic = os.Getenv("KAFKA_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "activity-events"
	}

	kafkaWriter = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        kafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	log.Printf("Kafka writer initialized for topic %s", kafkaTopic)
}

// KafkaEnabled reports whether a broker was configured.
func KafkaEnabled() bool {
	return kafkaWriter != nil
}

// Publish writes one message keyed for partition affinity.
func Publish(ctx context.Context, key string, value []byte) error {
	if kafkaWriter == nil {
		return ErrKafkaDisabled
	}
	return kafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// NewKafkaReader builds a consumer for the activity event topic.
func NewKafkaReader(groupID string) *kafka.Reader {
	brokers := os.Getenv("KAFKA_BROKERS")
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "activity-events"
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}
