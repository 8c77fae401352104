package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter publishes events as JSON keyed by student id.
type KafkaEmitter struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaEmitter(brokers []string, topic string) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			Async:                  false,
			WriteTimeout:           10 * time.Second,
			AllowAutoTopicCreation: true,
		},
		timeout: 5 * time.Second,
	}
}

func (k *KafkaEmitter) Emit(ctx context.Context, e Event) error {
	if k == nil || k.writer == nil {
		return nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.StudentID),
		Value: raw,
		Time:  e.CreatedAt,
	}); err != nil {
		return fmt.Errorf("kafka publish %s: %w", e.ID, err)
	}
	return nil
}

func (k *KafkaEmitter) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
