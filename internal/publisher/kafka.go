// Package publisher sends checkout events to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType = "event_type"
	HeaderOrigin    = "origin"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	origin string
}

// NewKafkaPublisher writes to topic. origin tags every message so the
// instance that published an event can recognise it when it reads it back.
func NewKafkaPublisher(origin, topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &KafkaPublisher{writer: w, origin: origin}
}

func (p *KafkaPublisher) PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.CheckoutID), // checkout_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(domain.EventCheckoutCompleted)},
			{Key: HeaderOrigin, Value: []byte(p.origin)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish checkout %s: %w", event.CheckoutID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
