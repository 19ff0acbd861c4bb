// Package publish streams accepted node submissions to downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jengzang/wifi-coverage-go/internal/models"
)

// SubmissionEvent is the message emitted for every accepted submission
type SubmissionEvent struct {
	NodeID     string                 `json:"node_id"`
	ReceivedAt time.Time              `json:"received_at"`
	Position   *models.Position       `json:"position,omitempty"`
	Readings   []models.SensorReading `json:"readings"`
}

// Publisher delivers submission events
type Publisher interface {
	Publish(ctx context.Context, ev SubmissionEvent) error
	Close() error
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, SubmissionEvent) error { return nil }
func (Nop) Close() error                                   { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events keyed by node id, so one node's events stay ordered
type Kafka struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewKafka creates a publisher writing to topic on the given brokers
func NewKafka(brokers []string, topic string, logger *slog.Logger) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafka(w, topic, logger)
}

func newKafka(w messageWriter, topic string, logger *slog.Logger) *Kafka {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		writer: w,
		topic:  topic,
		logger: logger.With(slog.String("component", "kafka-publisher"), slog.String("topic", topic)),
	}
}

// Publish writes one event
func (k *Kafka) Publish(ctx context.Context, ev SubmissionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding submission event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.NodeID),
		Value: body,
		Time:  ev.ReceivedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing submission event: %w", err)
	}
	k.logger.Debug("submission event published", slog.String("node_id", ev.NodeID), slog.Int("readings", len(ev.Readings)))
	return nil
}

// Close flushes and closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
