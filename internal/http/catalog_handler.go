package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Browser lists the catalog. Only the local demo catalog supports it.
type Browser interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type CatalogHandler struct {
	catalog Browser
	timeout time.Duration
}

func NewCatalogHandler(browser Browser, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: browser, timeout: timeout}
}

type ProductResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	PriceLabel string  `json:"price_label"`
	Stock      int     `json:"stock"`
	CategoryID int64   `json:"category_id"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

type CategoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageSrc string `json:"image_src"`
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.catalog.ListProducts(ctx)
	if err != nil {
		respondErrorDetails(w, http.StatusInternalServerError, "internal_error", "failed to list products", err.Error())
		return
	}

	products := make([]ProductResponse, len(res))
	for i, p := range res {
		products[i] = ProductResponse{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			PriceLabel: catalog.FormatPrice(p.Price),
			Stock:      p.Stock,
			CategoryID: p.CategoryID,
		}
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.catalog.ListCategories(ctx)
	if err != nil {
		respondErrorDetails(w, http.StatusInternalServerError, "internal_error", "failed to list categories", err.Error())
		return
	}

	categories := make([]CategoryResponse, len(res))
	for i, c := range res {
		categories[i] = CategoryResponse{ID: c.ID, Name: c.Name, ImageSrc: catalog.ResolveDisplayImage(c.Name)}
	}
	respondJSON(w, http.StatusOK, categories)
}
