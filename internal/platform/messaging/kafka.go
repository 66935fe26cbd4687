package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pollster/contexts/community-polls/voting-service/ports"

	"github.com/segmentio/kafka-go"
)

// Kafka publishes and consumes voting envelopes on a broker cluster. Topics
// are the event types with an optional prefix; messages are keyed by the
// envelope partition key so one question's events stay on one partition.
type Kafka struct {
	brokers     []string
	topicPrefix string
	writer      *kafka.Writer
	logger      *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafka(brokers []string, topicPrefix string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers:     brokers,
		topicPrefix: strings.TrimSpace(topicPrefix),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
			MaxAttempts:  5,
			Compression:  kafka.Snappy,
		},
		logger: logger,
	}, nil
}

// TopicName maps an event type onto the broker topic.
func (k *Kafka) TopicName(eventType string) string {
	return k.topicPrefix + eventType
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	message, err := k.message(topic, event)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, message); err != nil {
		k.logger.Error("kafka publish failed",
			"event", "kafka_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", message.Topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return fmt.Errorf("write message to kafka: %w", err)
	}
	k.logger.Info("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", message.Topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

func (k *Kafka) message(topic string, event ports.EventEnvelope) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal envelope: %w", err)
	}
	key := strings.TrimSpace(event.PartitionKey)
	if key == "" {
		key = event.EventID
	}
	return kafka.Message{
		Topic: k.TopicName(topic),
		Key:   []byte(key),
		Value: value,
	}, nil
}

// Subscribe starts a consumer group reader. Offsets are committed only after
// the handler succeeds.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.brokers,
		Topic:       k.TopicName(topic),
		GroupID:     consumerGroup,
		MinBytes:    10e3,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
	k.mu.Lock()
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	go k.consume(ctx, reader, consumerGroup, handler)
	return nil
}

func (k *Kafka) consume(
	ctx context.Context,
	reader *kafka.Reader,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) {
	topic := reader.Config().Topic
	for {
		message, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			k.logger.Error("kafka fetch failed",
				"event", "kafka_fetch_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"error", err.Error(),
			)
			if ctx.Err() != nil {
				return
			}
			continue
		}

		var event ports.EventEnvelope
		if err := json.Unmarshal(message.Value, &event); err != nil {
			k.logger.Error("kafka envelope decode failed",
				"event", "kafka_decode_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"offset", message.Offset,
				"error", err.Error(),
			)
			_ = reader.CommitMessages(ctx, message)
			continue
		}
		if err := handler(ctx, event); err != nil {
			k.logger.Error("consumer handler failed",
				"event", "kafka_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			continue
		}
		if err := reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			k.logger.Warn("kafka commit failed",
				"event", "kafka_commit_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"offset", message.Offset,
				"error", err.Error(),
			)
		}
	}
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	var errs []error
	for _, reader := range readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka reader: %w", err))
		}
	}
	if err := k.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka writer: %w", err))
	}
	return errors.Join(errs...)
}

var (
	_ ports.EventPublisher  = (*Kafka)(nil)
	_ ports.EventSubscriber = (*Kafka)(nil)
)
