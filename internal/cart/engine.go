// Package cart is the shopping-cart engine: one Engine per shopper owns the
// line items, enforces stock-bounded quantities, derives totals and rewrites
// the shopper's "storeCart" slot after every change.
//
// Engine operations never fail observably. Out-of-stock adds, adds at the
// stock ceiling and updates or removals of unknown products are no-ops, and
// persistence failures are logged while the in-memory cart stays
// authoritative.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StorageKey is the slot the cart is persisted under.
const StorageKey = "storeCart"

// ImageResolver maps a category label to a display image.
type ImageResolver func(categoryLabel string) string

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithImageResolver(r ImageResolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolveImage = r
		}
	}
}

type Engine struct {
	mu           sync.Mutex
	store        kvstore.Store
	items        []domain.LineItem
	isOpen       bool
	log          *zap.Logger
	resolveImage ImageResolver
}

// New builds an engine from whatever the store holds under StorageKey. A
// missing, unreadable or malformed slot yields an empty cart.
func New(ctx context.Context, store kvstore.Store, opts ...Option) *Engine {
	e, _ := newEngine(ctx, store, opts...)
	return e
}

// newEngine is New that also reports a slot read failure other than
// kvstore.ErrNotFound.
func newEngine(ctx context.Context, store kvstore.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:        store,
		log:          zap.NewNop(),
		resolveImage: catalog.ResolveDisplayImage,
	}
	for _, opt := range opts {
		opt(e)
	}

	items, err := e.load(ctx)
	e.items = items
	return e, err
}

func (e *Engine) load(ctx context.Context) ([]domain.LineItem, error) {
	raw, err := e.store.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []domain.LineItem{}, nil
		}
		e.log.Warn("cart slot unreadable, starting empty", zap.Error(err))
		return []domain.LineItem{}, err
	}

	items, err := decodeItems(raw)
	if err != nil {
		e.log.Debug("discarding malformed cart slot", zap.Error(err))
		return []domain.LineItem{}, nil
	}
	return items, nil
}

// AddItem puts one unit of product into the cart. A product without stock is
// ignored, as is one with a negative price; a product already present gains one unit up to its stock ceiling.
// An empty imageRef is resolved from the category label.
func (e *Engine) AddItem(ctx context.Context, product domain.Product, categoryLabel, imageRef string) {
	if product.Stock <= 0 || product.Price < 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(product.ID); i >= 0 {
		existing := &e.items[i]
		next := min(existing.Quantity+1, existing.StockCeiling)
		if next == existing.Quantity {
			return
		}
		existing.Quantity = next
		e.resync(ctx)
		return
	}

	if imageRef == "" {
		imageRef = e.resolveImage(categoryLabel)
	}

	e.items = append(e.items, domain.LineItem{
		ProductID:     product.ID,
		Name:          product.Name,
		UnitPrice:     product.Price,
		Quantity:      1,
		StockCeiling:  product.Stock,
		CategoryLabel: categoryLabel,
		ImageRef:      imageRef,
	})
	e.resync(ctx)
}

func (e *Engine) RemoveItem(ctx context.Context, productID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		return
	}
	e.items = append(e.items[:i], e.items[i+1:]...)
	e.resync(ctx)
}

// UpdateQuantity shifts the quantity by delta, capped at the stock ceiling.
// Reaching zero or below removes the item.
func (e *Engine) UpdateQuantity(ctx context.Context, productID int64, delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		return
	}

	item := &e.items[i]
	next := shiftQuantity(item.Quantity, delta, item.StockCeiling)
	switch {
	case next <= 0:
		e.items = append(e.items[:i], e.items[i+1:]...)
	case next == item.Quantity:
		return
	default:
		item.Quantity = next
	}
	e.resync(ctx)
}

// Clear empties the cart.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return
	}
	e.items = []domain.LineItem{}
	e.resync(ctx)
}

// RemovePurchased takes the purchased quantities off the cart. Lines added
// or grown after the purchase snapshot keep whatever exceeds it.
func (e *Engine) RemovePurchased(ctx context.Context, purchased []domain.LineItem) {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := false
	for _, p := range purchased {
		i := e.indexOf(p.ProductID)
		if i < 0 || p.Quantity <= 0 {
			continue
		}
		changed = true
		if e.items[i].Quantity <= p.Quantity {
			e.items = append(e.items[:i], e.items[i+1:]...)
			continue
		}
		e.items[i].Quantity -= p.Quantity
	}
	if changed {
		e.resync(ctx)
	}
}

func (e *Engine) Open() {
	e.mu.Lock()
	e.isOpen = true
	e.mu.Unlock()
}

func (e *Engine) Close() {
	e.mu.Lock()
	e.isOpen = false
	e.mu.Unlock()
}

func (e *Engine) Toggle() {
	e.mu.Lock()
	e.isOpen = !e.isOpen
	e.mu.Unlock()
}

func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isOpen
}

// Items returns a copy of the line items in insertion order.
func (e *Engine) Items() []domain.LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyItems()
}

func (e *Engine) TotalItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return totalItemCount(e.items)
}

func (e *Engine) TotalPrice() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return totalPrice(e.items)
}

// Snapshot is a consistent read-only view for the checkout UI.
func (e *Engine) Snapshot() domain.CartSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return domain.CartSnapshot{
		Items:          e.copyItems(),
		TotalItemCount: totalItemCount(e.items),
		TotalPrice:     totalPrice(e.items),
		IsOpen:         e.isOpen,
	}
}

func (e *Engine) indexOf(productID int64) int {
	for i := range e.items {
		if e.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) copyItems() []domain.LineItem {
	out := make([]domain.LineItem, len(e.items))
	copy(out, e.items)
	return out
}

// resync writes the whole cart back to the store. Must hold e.mu.
func (e *Engine) resync(ctx context.Context) {
	raw, err := encodeItems(e.items)
	if err != nil {
		e.log.Error("failed to encode cart", zap.Error(err))
		return
	}
	if err := e.store.Set(ctx, StorageKey, raw); err != nil {
		e.log.Warn("failed to persist cart", zap.Error(err))
	}
}

// shiftQuantity adds delta to qty without overflowing int. The result is
// capped at ceiling; anything at or below zero comes back as 0.
func shiftQuantity(qty, delta, ceiling int) int {
	if delta >= ceiling-qty {
		return ceiling
	}
	if delta <= -qty {
		return 0
	}
	return qty + delta
}

func totalItemCount(items []domain.LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func totalPrice(items []domain.LineItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum.InexactFloat64()
}
