package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"go.uber.org/zap"
	"gotest.tools/v3/poll"
)

type recordingDropper struct {
	mu      sync.Mutex
	dropped []string
	err     error
}

func (r *recordingDropper) Drop(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = append(r.dropped, sessionID)
	return r.err
}

func (r *recordingDropper) sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dropped...)
}

func message(t *testing.T, event domain.CheckoutCompletedEvent, headers ...kafkaGo.Header) kafkaGo.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafkaGo.Message{Key: []byte(event.CheckoutID), Value: payload, Headers: headers}
}

func eventType(v string) kafkaGo.Header {
	return kafkaGo.Header{Key: publisher.HeaderEventType, Value: []byte(v)}
}

func origin(v string) kafkaGo.Header {
	return kafkaGo.Header{Key: publisher.HeaderOrigin, Value: []byte(v)}
}

func TestHandleMessage_DropsSession(t *testing.T) {
	dropper := &recordingDropper{}
	p := &Poller{carts: dropper, origin: "node-a"}

	err := p.handleMessage(context.Background(), message(t,
		domain.CheckoutCompletedEvent{CheckoutID: "c1", SessionID: "s1"},
		eventType(domain.EventCheckoutCompleted), origin("node-b")))

	assert.NilError(t, err)
	assert.DeepEqual(t, []string{"s1"}, dropper.sessions())
}

func TestHandleMessage_SkipsOwnEvents(t *testing.T) {
	dropper := &recordingDropper{}
	p := &Poller{carts: dropper, origin: "node-a"}

	err := p.handleMessage(context.Background(), message(t,
		domain.CheckoutCompletedEvent{CheckoutID: "c1", SessionID: "s1"},
		eventType(domain.EventCheckoutCompleted), origin("node-a")))

	assert.NilError(t, err)
	assert.Check(t, is.Len(dropper.sessions(), 0))
}

func TestHandleMessage_SkipsOtherEventTypes(t *testing.T) {
	dropper := &recordingDropper{}
	p := &Poller{carts: dropper}

	err := p.handleMessage(context.Background(), message(t,
		domain.CheckoutCompletedEvent{SessionID: "s1"}, eventType("CheckoutFailed")))

	assert.NilError(t, err)
	assert.Check(t, is.Len(dropper.sessions(), 0))
}

func TestHandleMessage_BadPayloads(t *testing.T) {
	dropper := &recordingDropper{}
	p := &Poller{carts: dropper}

	err := p.handleMessage(context.Background(), kafkaGo.Message{Value: []byte("not json")})
	assert.ErrorContains(t, err, "error parsing message")

	err = p.handleMessage(context.Background(), message(t, domain.CheckoutCompletedEvent{CheckoutID: "c1"}))
	assert.ErrorIs(t, err, errMissingSession)
	assert.Check(t, is.Len(dropper.sessions(), 0))
}

func TestHandleMessage_DropError(t *testing.T) {
	p := &Poller{carts: &recordingDropper{err: errors.New("store down")}}

	err := p.handleMessage(context.Background(), message(t, domain.CheckoutCompletedEvent{SessionID: "s1"}))
	assert.ErrorContains(t, err, "store down")
}

func TestHandleMessage_DropsRegistryCart(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	registry := cart.NewRegistry(store, 0)
	registry.Get(ctx, "s1").AddItem(ctx, domain.Product{ID: 1, Name: "G502", Price: 45000, Stock: 3}, "mouse", "")
	p := &Poller{carts: registry}

	err := p.handleMessage(ctx, message(t, domain.CheckoutCompletedEvent{CheckoutID: "c1", SessionID: "s1"}))

	assert.NilError(t, err)
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 0, store.Len())
}

type stubReader struct {
	msgs   chan kafkaGo.Message
	closed bool
}

func (s *stubReader) ReadMessage(ctx context.Context) (kafkaGo.Message, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	case <-ctx.Done():
		return kafkaGo.Message{}, ctx.Err()
	}
}

func (s *stubReader) Close() error {
	s.closed = true
	return nil
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &stubReader{msgs: make(chan kafkaGo.Message, 1)}
	dropper := &recordingDropper{}
	p := &Poller{carts: dropper, reader: reader}

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	reader.msgs <- message(t, domain.CheckoutCompletedEvent{CheckoutID: "c1", SessionID: "s9"})
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if len(dropper.sessions()) == 1 {
			return poll.Success()
		}
		return poll.Continue("waiting for drop")
	}, poll.WithTimeout(2*time.Second))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	p.Close()
	assert.Check(t, reader.closed)
}

type failingReader struct {
	reads atomic.Int32
	err   error
}

func (f *failingReader) ReadMessage(context.Context) (kafkaGo.Message, error) {
	f.reads.Add(1)
	return kafkaGo.Message{}, f.err
}

func (f *failingReader) Close() error { return nil }

func TestRun_WaitsAfterReadError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &failingReader{err: errors.New("broker unreachable")}
	p := &Poller{carts: &recordingDropper{}, reader: reader, log: zap.NewNop(), retryDelay: time.Hour}

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if reader.reads.Load() >= 1 {
			return poll.Success()
		}
		return poll.Continue("waiting for first read")
	}, poll.WithTimeout(2*time.Second))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), reader.reads.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop while backing off")
	}
}

func TestRun_StopsWhenReaderClosed(t *testing.T) {
	reader := &failingReader{err: io.EOF}
	p := &Poller{carts: &recordingDropper{}, reader: reader, log: zap.NewNop()}

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller kept reading from a closed reader")
	}
	assert.Equal(t, int32(1), reader.reads.Load())
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

func TestPoller_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	brokers, cleanupKafka := setupKafka(t)
	defer cleanupKafka()
	topic := "storefront-checkout"
	createTopic(t, brokers, topic)

	store := kvstore.NewMemoryStore()
	registry := cart.NewRegistry(store, 0)
	registry.Get(ctx, "123").AddItem(ctx, domain.Product{ID: 1, Name: "G502", Price: 45000, Stock: 3}, "mouse", "")

	p := NewPoller(registry, nil, "node-a", topic, "storefront-test", brokers)
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
		p.Close()
	}()

	pub := publisher.NewKafkaPublisher("node-b", topic, brokers)
	defer pub.Close()
	require.NoError(t, pub.PublishCheckoutCompleted(ctx, domain.CheckoutCompletedEvent{
		CheckoutID: "chId",
		SessionID:  "123",
	}))

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if store.Len() == 0 {
			return poll.Success()
		}
		return poll.Continue("cart slot still present")
	}, poll.WithTimeout(60*time.Second), poll.WithDelay(500*time.Millisecond))
}
