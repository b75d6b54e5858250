package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// TopicTaskEvents carries one message per successful task mutation, keyed by
// task id so all events for a task land on the same partition in order.
const TopicTaskEvents = "tareas.eventos"

// TopicPayrollDigest carries the periodic unpaid-approvals summary.
const TopicPayrollDigest = "nomina.resumen"

// Producer publishes messages to a Kafka topic.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	PublishTaskEvent(ctx context.Context, ev domain.TaskEvent) error
	Close() error
}

type producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer connected to the given brokers.
func NewProducer(brokers []string) Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{}, // key-hashed → per-task ordering
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &producer{writer: w}
}

func (p *producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	// Carry the active trace context in message headers so consumers can
	// continue the trace.
	headers := make(HeaderCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header(headers),
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

// PublishTaskEvent marshals and publishes ev on the task-events topic.
func (p *producer) PublishTaskEvent(ctx context.Context, ev domain.TaskEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal task event: %w", err)
	}
	return p.Publish(ctx, TopicTaskEvents, fmt.Sprintf("%d", ev.TaskID), payload)
}

func (p *producer) Close() error {
	return p.writer.Close()
}
