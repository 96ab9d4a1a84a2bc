package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/account"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

type AccountHandler struct {
	store     kvstore.Store
	addresses catalog.AddressBook
	timeout   time.Duration
}

func NewAccountHandler(store kvstore.Store, addresses catalog.AddressBook, timeout time.Duration) *AccountHandler {
	return &AccountHandler{
		store:     store,
		addresses: addresses,
		timeout:   timeout,
	}
}

type LoginRequestDTO struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
	ClientID int64       `json:"client_id"`
}

type CardRequestDTO struct {
	HolderName string `json:"holder_name"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
}

type AddressRequestDTO struct {
	Street string `json:"street"`
	Number string `json:"number"`
	City   string `json:"city"`
}

type CardResponse struct {
	HolderName string `json:"holder_name"`
	Masked     string `json:"masked"`
	Expiry     string `json:"expiry"`
}

type AccountResponse struct {
	User    *domain.DemoUser `json:"user"`
	IsAdmin bool             `json:"is_admin"`
	Card    *CardResponse    `json:"card,omitempty"`
	Address *domain.Address  `json:"address,omitempty"`
}

// Get reports the shopper's profile: identity, masked card and address on
// file.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	svc := h.service(ctx)
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		handleAccountError(w, err)
		return
	}

	resp := AccountResponse{User: user, IsAdmin: svc.IsAdmin(ctx)}
	if card, err := svc.Card(ctx); err == nil {
		resp.Card = maskedCard(card)
	}
	if addr, err := svc.CurrentAddress(ctx); err == nil {
		resp.Address = addr
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.service(ctx).Login(ctx, domain.DemoUser{
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		ClientID: req.ClientID,
	})
	if err != nil {
		handleAccountError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AccountResponse{User: user, IsAdmin: user.IsAdmin()})
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.service(ctx).Logout(ctx); err != nil {
		handleAccountError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) SaveCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CardRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	card, err := h.service(ctx).SaveCard(ctx, domain.SavedCard{
		HolderName: req.HolderName,
		CardNumber: req.CardNumber,
		Expiry:     req.Expiry,
	})
	if err != nil {
		handleAccountError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, maskedCard(card))
}

func (h *AccountHandler) ClearCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.service(ctx).ClearCard(ctx); err != nil {
		handleAccountError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddressRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	addr, err := h.service(ctx).SaveAddress(ctx, domain.Address{
		Street: req.Street,
		Number: req.Number,
		City:   req.City,
	})
	if err != nil {
		handleAccountError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addr)
}

func (h *AccountHandler) service(ctx context.Context) *account.Service {
	return account.NewService(kvstore.Scope(h.store, getSessionID(ctx)), h.addresses, logger.FromContext(ctx))
}

func maskedCard(card *domain.SavedCard) *CardResponse {
	return &CardResponse{
		HolderName: card.HolderName,
		Masked:     account.MaskCard(card.CardNumber),
		Expiry:     card.Expiry,
	}
}

func handleAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, account.ErrInvalidUser),
		errors.Is(err, account.ErrInvalidRole),
		errors.Is(err, account.ErrInvalidCard),
		errors.Is(err, account.ErrInvalidAddress):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, account.ErrNoClient):
		respondError(w, http.StatusConflict, "no_client", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		respondErrorDetails(w, http.StatusInternalServerError, "internal_error", "internal server error", err.Error())
	}
}
