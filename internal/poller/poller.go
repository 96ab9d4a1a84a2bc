// Package poller listens for completed checkouts published by any storefront
// instance and drops the matching shopper carts.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var errMissingSession = errors.New("missing or invalid session_id")

const defaultRetryDelay = time.Second

// CartDropper forgets a session's cart, both cached and persisted.
type CartDropper interface {
	Drop(ctx context.Context, sessionID string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Poller struct {
	carts      CartDropper
	reader     messageReader
	origin     string
	log        *zap.Logger
	retryDelay time.Duration
}

// NewPoller consumes topic as groupID. Events carrying origin were published
// by this instance, which already cleared the cart, and are skipped.
func NewPoller(carts CartDropper, log *zap.Logger, origin, topic, groupID string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{carts: carts, reader: reader, origin: origin, log: log, retryDelay: defaultRetryDelay}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				p.log.Info("reader closed, stopping")
				return
			}
			p.log.Warn("error reading message", zap.Error(err))
			if !p.wait(ctx) {
				return
			}
			continue
		}
		if err := p.handleMessage(ctx, m); err != nil {
			p.log.Warn("failed to handle checkout event",
				zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

// wait pauses before the next read. It reports false once ctx is done.
func (p *Poller) wait(ctx context.Context) bool {
	delay := p.retryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) handleMessage(ctx context.Context, m kafka.Message) error {
	if eventType := headerValue(m, publisher.HeaderEventType); eventType != "" && eventType != domain.EventCheckoutCompleted {
		return nil
	}
	if p.origin != "" && headerValue(m, publisher.HeaderOrigin) == p.origin {
		return nil
	}

	var event domain.CheckoutCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}
	if event.SessionID == "" {
		return errMissingSession
	}

	if err := p.carts.Drop(ctx, event.SessionID); err != nil {
		return err
	}
	p.log.Info("dropped cart after remote checkout",
		zap.String("checkout_id", event.CheckoutID),
		zap.String("session_id", event.SessionID))
	return nil
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
