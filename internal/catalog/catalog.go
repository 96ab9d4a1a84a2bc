// Package catalog looks up products, categories and shopper addresses, either
// from the local demo SQLite catalog or from the storefront REST backend.
package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrAddressNotFound  = errors.New("address not found")
)

// Provider is what the cart needs from the catalog.
type Provider interface {
	FetchProduct(ctx context.Context, id int64) (*domain.Product, error)
	FetchCategoryName(ctx context.Context, categoryID int64) (string, error)
}

// AddressBook stores delivery addresses per client.
type AddressBook interface {
	LatestAddress(ctx context.Context, clientID int64) (*domain.Address, error)
	CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error)
}
