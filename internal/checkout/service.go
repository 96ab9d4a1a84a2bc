package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SummaryKey is the slot the last purchase summary is kept under.
const SummaryKey = "storeCheckoutSummary"

const Currency = "ARS"

// Cart is the part of the cart engine checkout needs.
type Cart interface {
	Snapshot() domain.CartSnapshot
	RemovePurchased(ctx context.Context, purchased []domain.LineItem)
}

// Shopper reports the shopper's identity and what they have on file.
type Shopper interface {
	Signals(ctx context.Context) Signals
	CurrentUser(ctx context.Context) (*domain.DemoUser, error)
	CurrentAddress(ctx context.Context) (*domain.Address, error)
}

type Publisher interface {
	PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error
}

type Service struct {
	store     kvstore.Store
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
}

// NewService keeps summaries in store, scoped per session. publisher may be
// nil when no broker is configured.
func NewService(store kvstore.Store, publisher Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Readiness evaluates the session's cart against the shopper's signals.
func (s *Service) Readiness(ctx context.Context, c Cart, shopper Shopper) Readiness {
	return Evaluate(c.Snapshot().TotalItemCount, shopper.Signals(ctx))
}

// Complete turns a ready cart into a purchase: the summary is stored, a
// CheckoutCompleted event is published and the purchased lines leave the
// cart. Anything added while the checkout ran stays in the cart.
func (s *Service) Complete(ctx context.Context, sessionID string, c Cart, shopper Shopper) (*domain.CheckoutSummary, error) {
	snapshot := c.Snapshot()
	readiness := Evaluate(snapshot.TotalItemCount, shopper.Signals(ctx))
	if !readiness.CanCheckout {
		step := readiness.NextStep()
		if step == StepAddItems {
			return nil, ErrEmptyCart
		}
		return nil, &NotReadyError{Step: step}
	}

	user, err := shopper.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopper: %w", err)
	}
	addr, err := shopper.CurrentAddress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery address: %w", err)
	}

	total := decimal.NewFromFloat(snapshot.TotalPrice).Round(2).InexactFloat64()
	summary := &domain.CheckoutSummary{
		CheckoutID:    uuid.NewString(),
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		Address:       FormatAddress(addr),
		Total:         total,
		PurchasedAt:   s.now().UTC(),
		Items:         snapshot.Items,
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout summary: %w", err)
	}
	if err := kvstore.Scope(s.store, sessionID).Set(ctx, SummaryKey, string(data)); err != nil {
		return nil, fmt.Errorf("failed to save checkout summary: %w", err)
	}

	if s.publisher != nil {
		event := domain.CheckoutCompletedEvent{
			CheckoutID:  summary.CheckoutID,
			SessionID:   sessionID,
			UserEmail:   user.Email,
			ClientID:    user.ClientID,
			Items:       summary.Items,
			TotalAmount: total,
			Currency:    Currency,
			CompletedAt: summary.PurchasedAt,
		}
		if err := s.publisher.PublishCheckoutCompleted(ctx, event); err != nil {
			s.log.Error("failed to publish checkout completed",
				zap.String("checkout_id", summary.CheckoutID), zap.Error(err))
		}
	}

	c.RemovePurchased(ctx, snapshot.Items)
	s.log.Info("checkout completed",
		zap.String("checkout_id", summary.CheckoutID),
		zap.Int("items", snapshot.TotalItemCount),
		zap.Float64("total", total))
	return summary, nil
}

func (s *Service) Summary(ctx context.Context, sessionID string) (*domain.CheckoutSummary, error) {
	raw, err := kvstore.Scope(s.store, sessionID).Get(ctx, SummaryKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkout summary: %w", err)
	}

	var summary domain.CheckoutSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		s.log.Debug("discarding malformed checkout summary", zap.Error(err))
		return nil, ErrSummaryNotFound
	}
	return &summary, nil
}

func (s *Service) ClearSummary(ctx context.Context, sessionID string) error {
	if err := kvstore.Scope(s.store, sessionID).Delete(ctx, SummaryKey); err != nil {
		return fmt.Errorf("failed to clear checkout summary: %w", err)
	}
	return nil
}
