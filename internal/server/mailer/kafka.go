package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the sender uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes messages as JSON to an outbox topic consumed by the
// mail relay. The writer is asynchronous; delivery failures are only logged.
type KafkaSender struct {
	w   messageWriter
	log logging.Logger
}

func NewKafkaSender(brokers []string, topic string, log logging.Logger) *KafkaSender {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error(context.Background(), "failed to write mail messages", "error", err, "message_count", len(messages))
			}
		},
	}
	return &KafkaSender{w: w, log: log}
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail message: %w", err)
	}

	id := uuid.NewString()
	err = s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Headers: []kafka.Header{
			{Key: "message-id", Value: []byte(id)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	s.log.Debug(ctx, "mail queued", "message_id", id, "subject", msg.Subject)
	return nil
}

func (s *KafkaSender) Close() error {
	return s.w.Close()
}
