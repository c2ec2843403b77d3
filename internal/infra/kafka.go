package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vidmark/platform/internal/domain"
)

// KafkaProducer wraps a kafka-go writer for publishing messages.
type KafkaProducer struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	enabled bool
}

// NewKafkaProducer creates a Kafka producer. If brokers is empty or disabled, writes are no-ops.
func NewKafkaProducer(brokers string, enabled bool, logger *slog.Logger) *KafkaProducer {
	if !enabled || brokers == "" {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{enabled: false, logger: logger}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("kafka producer initialized", "brokers", brokers)
	return &KafkaProducer{writer: w, logger: logger, enabled: true}
}

// Publish sends a message to the given topic. No-op if disabled.
func (p *KafkaProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if !p.enabled {
		return nil
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

// Close shuts down the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// EventRelay forwards published typed domain events to Kafka so external
// consumers can react without polling the event log.
type EventRelay struct {
	producer *KafkaProducer
}

// NewEventRelay creates a relay over the given producer.
func NewEventRelay(producer *KafkaProducer) *EventRelay {
	return &EventRelay{producer: producer}
}

// Publish produces one event to the per-type topic, keyed by the acting user
// so per-user ordering survives partitioning.
func (r *EventRelay) Publish(ctx context.Context, event *domain.DomainEvent) error {
	topic := "vidmark.events." + strings.ToLower(strings.TrimSuffix(*event.EventType, "Event"))

	msg, err := json.Marshal(map[string]interface{}{
		"event_id":    event.ID,
		"event_type":  *event.EventType,
		"user_id":     event.UserID,
		"payload":     event.EventData,
		"occurred_at": event.OccurredAt,
	})
	if err != nil {
		return err
	}

	return r.producer.Publish(ctx, topic, []byte(event.UserID), msg)
}
