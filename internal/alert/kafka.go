package alert

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"example.com/sedentary/internal/events"
)

// messageWriter is satisfied by *kafka.Writer bound to the alert topic.
type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(context.Context, string, string) (int, error)
}

// NewKafkaWriter returns a synchronous writer for the alert topic. Alerts are
// rare, so every record is flushed on its own and acknowledged by all replicas.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              1,
		AllowAutoTopicCreation: false,
	}
}

// KafkaDispatcher publishes alerts as AlertRaised events for the push service to fan out.
type KafkaDispatcher struct {
	writer   messageWriter
	registry schemaRegistrar
	topic    string
	userID   string
	now      func() time.Time

	mu       sync.Mutex
	schemaID int
}

// NewKafkaDispatcher constructs a KafkaDispatcher. topic names the schema
// subject and must match the writer's topic. registry may be nil, in which case
// payloads are written as plain JSON.
func NewKafkaDispatcher(writer messageWriter, registry schemaRegistrar, topic, userID string) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer:   writer,
		registry: registry,
		topic:    topic,
		userID:   userID,
		now:      time.Now,
	}
}

// Deliver writes one AlertRaised record keyed by user.
func (d *KafkaDispatcher) Deliver(ctx context.Context, title, body string) error {
	sentAt := d.now().UTC()
	payload, err := json.Marshal(events.AlertRaised{
		AlertID: uuid.NewString(),
		UserID:  d.userID,
		Title:   title,
		Body:    body,
		SentAt:  sentAt,
	})
	if err != nil {
		recordDelivery("kafka", err)
		return &DeliveryError{Sink: "kafka", Err: err}
	}

	value := payload
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(events.TypeAlertRaised)},
		{Key: "user_id", Value: []byte(d.userID)},
	}
	if d.registry != nil {
		subject := d.topic + "-value"
		schemaID, err := d.ensureSchema(ctx, subject)
		if err != nil {
			recordDelivery("kafka", err)
			return &DeliveryError{Sink: "kafka", Err: err}
		}
		value = encodeWireFormat(schemaID, payload)
		headers = append(headers, kafka.Header{Key: "schema_subject", Value: []byte(subject)})
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(d.userID),
		Value:   value,
		Time:    sentAt,
		Headers: headers,
	})
	recordDelivery("kafka", err)
	if err != nil {
		return &DeliveryError{Sink: "kafka", Err: err}
	}
	return nil
}

func (d *KafkaDispatcher) ensureSchema(ctx context.Context, subject string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.schemaID != 0 {
		return d.schemaID, nil
	}
	id, err := d.registry.EnsureSchema(ctx, subject, alertRaisedSchema)
	if err != nil {
		return 0, err
	}
	d.schemaID = id
	return id, nil
}
