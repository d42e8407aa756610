// Package events publishes per-candidate result events to Kafka for
// downstream consumers like covgraph.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"common-corpus/internal/models"
)

// ResultProducer publishes ResultEvent messages.
type ResultProducer interface {
	WriteResult(ctx context.Context, event models.ResultEvent) error
}

// Producer wraps a Kafka writer for publishing result events. A nil
// *Producer is a no-op, so the engine can run with the event stream
// disabled.
type Producer struct {
	writer MessageWriter
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: false,
		},
	}
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer MessageWriter) *Producer {
	return &Producer{writer: writer}
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

// WriteResult publishes one result event, keyed by candidate position so a
// re-tested candidate lands in the same partition as its first attempt.
func (p *Producer) WriteResult(ctx context.Context, event models.ResultEvent) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(event.Position, 10)),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	return p.writer.WriteMessages(ctx, msg)
}
