// Package account keeps the shopper's demo identity and saved card in their
// session slots and reports what checkout needs to know about them.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"go.uber.org/zap"
)

const (
	UserKey  = "demoUser"
	AdminKey = "isAdmin"
	CardKey  = "demoCard"
)

var (
	ErrNotAuthenticated = errors.New("shopper is not logged in")
	ErrInvalidUser      = errors.New("email and name are required")
	ErrInvalidRole      = errors.New("role must be admin or customer")
	ErrInvalidCard      = errors.New("holder name, card number and expiry are required")
	ErrCardNotFound     = errors.New("no saved card")
	ErrInvalidAddress   = errors.New("street, number and city are required")
	ErrNoClient         = errors.New("shopper has no client id")
)

// Service works on one shopper's slots; pass it a store already scoped to
// the session.
type Service struct {
	store     kvstore.Store
	addresses catalog.AddressBook
	log       *zap.Logger
}

func NewService(store kvstore.Store, addresses catalog.AddressBook, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, addresses: addresses, log: log}
}

// Login stores the demo identity. The role defaults to customer.
func (s *Service) Login(ctx context.Context, user domain.DemoUser) (*domain.DemoUser, error) {
	user.Email = strings.TrimSpace(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if user.Email == "" || user.Name == "" {
		return nil, ErrInvalidUser
	}
	switch user.Role {
	case "":
		user.Role = domain.RoleCustomer
	case domain.RoleAdmin, domain.RoleCustomer:
	default:
		return nil, ErrInvalidRole
	}

	if err := s.setJSON(ctx, UserKey, user); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, AdminKey, strconv.FormatBool(user.IsAdmin())); err != nil {
		return nil, fmt.Errorf("failed to save admin flag: %w", err)
	}
	return &user, nil
}

func (s *Service) Logout(ctx context.Context) error {
	for _, key := range []string{UserKey, AdminKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *Service) CurrentUser(ctx context.Context) (*domain.DemoUser, error) {
	var user domain.DemoUser
	if err := s.getJSON(ctx, UserKey, &user); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) || errors.Is(err, errMalformedSlot) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) IsAdmin(ctx context.Context) bool {
	raw, err := s.store.Get(ctx, AdminKey)
	if err != nil {
		return false
	}
	admin, _ := strconv.ParseBool(raw)
	return admin
}

// SaveCard stores the card with every field trimmed.
func (s *Service) SaveCard(ctx context.Context, card domain.SavedCard) (*domain.SavedCard, error) {
	card = domain.SavedCard{
		HolderName: strings.TrimSpace(card.HolderName),
		CardNumber: strings.TrimSpace(card.CardNumber),
		Expiry:     strings.TrimSpace(card.Expiry),
	}
	if card.HolderName == "" || card.CardNumber == "" || card.Expiry == "" {
		return nil, ErrInvalidCard
	}
	if err := s.setJSON(ctx, CardKey, card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Service) Card(ctx context.Context) (*domain.SavedCard, error) {
	var card domain.SavedCard
	if err := s.getJSON(ctx, CardKey, &card); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) || errors.Is(err, errMalformedSlot) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (s *Service) ClearCard(ctx context.Context) error {
	if err := s.store.Delete(ctx, CardKey); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

// CurrentAddress is the most recent address saved for the shopper's client.
func (s *Service) CurrentAddress(ctx context.Context) (*domain.Address, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.ClientID == 0 {
		return nil, ErrNoClient
	}
	if s.addresses == nil {
		return nil, catalog.ErrAddressNotFound
	}
	return s.addresses.LatestAddress(ctx, user.ClientID)
}

func (s *Service) SaveAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.ClientID == 0 {
		return nil, ErrNoClient
	}

	addr.Street = strings.TrimSpace(addr.Street)
	addr.Number = strings.TrimSpace(addr.Number)
	addr.City = strings.TrimSpace(addr.City)
	if addr.Street == "" || addr.Number == "" || addr.City == "" {
		return nil, ErrInvalidAddress
	}
	if s.addresses == nil {
		return nil, fmt.Errorf("no address book configured")
	}

	addr.ID = 0
	addr.ClientID = user.ClientID
	return s.addresses.CreateAddress(ctx, addr)
}

// Signals reports the shopper's state for checkout. A failed address lookup
// counts as no address.
func (s *Service) Signals(ctx context.Context) checkout.Signals {
	var signals checkout.Signals

	if _, err := s.CurrentUser(ctx); err == nil {
		signals.Authenticated = true
	}
	if _, err := s.CurrentAddress(ctx); err == nil {
		signals.HasAddress = true
	} else if signals.Authenticated {
		s.log.Debug("no address on file", zap.Error(err))
	}
	if _, err := s.Card(ctx); err == nil {
		signals.HasPaymentInstrument = true
	}
	return signals
}

// MaskCard shows only the last four digits of a card number.
func MaskCard(cardNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) < 4 {
		return "****"
	}
	return "**** **** **** " + digits[len(digits)-4:]
}

var errMalformedSlot = errors.New("malformed slot")

func (s *Service) getJSON(ctx context.Context, key string, v any) error {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.log.Debug("discarding malformed slot", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %s", errMalformedSlot, key)
	}
	return nil
}

func (s *Service) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
