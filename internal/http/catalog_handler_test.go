package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
)

type BrowsableCatalogMock struct {
	CatalogMock
}

func (b *BrowsableCatalogMock) ListProducts(context.Context) ([]*domain.Product, error) {
	return []*domain.Product{
		{ID: 1, Name: "RTX 4060 Ti 8GB", Price: 449000, Stock: 12, CategoryID: 1},
	}, nil
}

func (b *BrowsableCatalogMock) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "Procesadores"}}, nil
}

func TestCatalogRoutes_OnlyForBrowsableCatalog(t *testing.T) {
	s := newTestServer()
	if recorder := s.do(t, "GET", "/api/v1/products", "", nil); recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestGetProducts_Success(t *testing.T) {
	store := kvstore.NewMemoryStore()
	handler := NewRouter(Deps{
		Carts:          cart.NewRegistry(store, 0),
		Store:          store,
		Catalog:        &BrowsableCatalogMock{},
		RequestTimeout: 5 * time.Second,
	})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/products", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	var response ProductsResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(response.Products))
	}
	if response.Products[0].PriceLabel != "$ 449.000" {
		t.Errorf("Expected price label $ 449.000, got %q", response.Products[0].PriceLabel)
	}

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/categories", nil))
	var categories []CategoryResponse
	if err := json.NewDecoder(recorder.Body).Decode(&categories); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(categories) != 1 || categories[0].ImageSrc != catalog.ResolveDisplayImage("Procesadores") {
		t.Errorf("Unexpected categories %+v", categories)
	}
}
