package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/account"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	carts     *cart.Registry
	store     kvstore.Store
	addresses catalog.AddressBook
	checkout  *checkout.Service
	timeout   time.Duration
}

func NewCheckoutHandler(carts *cart.Registry, store kvstore.Store, addresses catalog.AddressBook, svc *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		carts:     carts,
		store:     store,
		addresses: addresses,
		checkout:  svc,
		timeout:   timeout,
	}
}

type ReadinessResponse struct {
	checkout.Readiness
	NextStep checkout.Step `json:"nextStep"`
}

func (h *CheckoutHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(ctx)
	readiness := h.checkout.Readiness(ctx, h.carts.Get(ctx, sessionID), h.shopper(ctx, sessionID))
	respondJSON(w, http.StatusOK, ReadinessResponse{Readiness: readiness, NextStep: readiness.NextStep()})
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(ctx)
	summary, err := h.checkout.Complete(ctx, sessionID, h.carts.Get(ctx, sessionID), h.shopper(ctx, sessionID))
	if err != nil {
		var notReady *checkout.NotReadyError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondError(w, http.StatusConflict, "empty_cart", err.Error())
		case errors.As(err, &notReady):
			respondErrorDetails(w, http.StatusConflict, "not_ready", checkout.ErrNotReady.Error(), notReady.Step.String())
		default:
			logger.FromContext(ctx).Error("checkout failed", zap.Error(err))
			respondErrorDetails(w, http.StatusInternalServerError, "internal_error", "checkout failed", err.Error())
		}
		return
	}
	respondJSON(w, http.StatusCreated, summary)
}

// Summary returns the last purchase; ?format=text renders it as a receipt.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.checkout.Summary(ctx, getSessionID(ctx))
	if err != nil {
		if errors.Is(err, checkout.ErrSummaryNotFound) {
			respondError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		respondErrorDetails(w, http.StatusInternalServerError, "internal_error", "failed to read summary", err.Error())
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(checkout.RenderSummary(*summary)))
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *CheckoutHandler) ClearSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.checkout.ClearSummary(ctx, getSessionID(ctx)); err != nil {
		respondErrorDetails(w, http.StatusInternalServerError, "internal_error", "failed to clear summary", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) shopper(ctx context.Context, sessionID string) *account.Service {
	return account.NewService(kvstore.Scope(h.store, sessionID), h.addresses, logger.FromContext(ctx))
}
