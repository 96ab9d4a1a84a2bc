package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts   *cart.Registry
	catalog catalog.Provider
	timeout time.Duration
}

func NewCartHandler(carts *cart.Registry, provider catalog.Provider, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: provider,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64  `json:"product_id"`
	ImageSrc  string `json:"image_src,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.engine(ctx).Snapshot())
}

// AddItem looks the product up in the catalog and adds one unit of it.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.catalog.FetchProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		logger.FromContext(ctx).Warn("catalog lookup failed", zap.Int64("product_id", req.ProductID), zap.Error(err))
		respondErrorDetails(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch product", err.Error())
		return
	}

	label, err := h.catalog.FetchCategoryName(ctx, product.CategoryID)
	if err != nil {
		logger.FromContext(ctx).Debug("category lookup failed", zap.Int64("category_id", product.CategoryID), zap.Error(err))
		label = ""
	}

	e := h.engine(ctx)
	e.AddItem(ctx, *product, label, req.ImageSrc)
	respondJSON(w, http.StatusOK, e.Snapshot())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must not be zero")
		return
	}

	e := h.engine(ctx)
	e.UpdateQuantity(ctx, productID, req.Delta)
	respondJSON(w, http.StatusOK, e.Snapshot())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	e := h.engine(ctx)
	e.RemoveItem(ctx, productID)
	respondJSON(w, http.StatusOK, e.Snapshot())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	e := h.engine(ctx)
	e.Clear(ctx)
	respondJSON(w, http.StatusOK, e.Snapshot())
}

func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r.Context())
	e.Open()
	respondJSON(w, http.StatusOK, e.Snapshot())
}

func (h *CartHandler) Close(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r.Context())
	e.Close()
	respondJSON(w, http.StatusOK, e.Snapshot())
}

func (h *CartHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r.Context())
	e.Toggle()
	respondJSON(w, http.StatusOK, e.Snapshot())
}

func (h *CartHandler) engine(ctx context.Context) *cart.Engine {
	return h.carts.Get(ctx, getSessionID(ctx))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
