package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type fakeWriter struct {
	messages []kafkaGo.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testEvent() domain.CheckoutCompletedEvent {
	return domain.CheckoutCompletedEvent{
		CheckoutID:  "checkout-123",
		SessionID:   "session-456",
		UserEmail:   "ana@example.com",
		Items:       []domain.LineItem{{ProductID: 7, Name: "G502", UnitPrice: 100, Quantity: 2, StockCeiling: 2}},
		TotalAmount: 200,
		Currency:    "ARS",
		CompletedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func header(msg kafkaGo.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishCheckoutCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, origin: "node-a"}

	require.NoError(t, p.PublishCheckoutCompleted(context.Background(), testEvent()))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "checkout-123", string(msg.Key))
	assert.Equal(t, domain.EventCheckoutCompleted, header(msg, HeaderEventType))
	assert.Equal(t, "node-a", header(msg, HeaderOrigin))

	var got domain.CheckoutCompletedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "session-456", got.SessionID)
	assert.Equal(t, 200.0, got.TotalAmount)
}

func TestPublishCheckoutCompleted_WriterError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("leader not available")}}

	err := p.PublishCheckoutCompleted(context.Background(), testEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkout-123")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestKafkaPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}

	broker, cleanup := setupKafka(t)
	defer cleanup()
	topic := "storefront-checkout"
	createTopic(t, broker, topic)

	p := NewKafkaPublisher("node-a", topic, broker)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, p.PublishCheckoutCompleted(ctx, testEvent()))

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  "publisher-test",
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "checkout-123", string(msg.Key))
	assert.Equal(t, domain.EventCheckoutCompleted, header(msg, HeaderEventType))
}
