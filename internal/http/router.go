// Package http is the storefront's checkout UI API: cart events, demo
// account and checkout, scoped per shopper session.
package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Carts          *cart.Registry
	Store          kvstore.Store
	Catalog        catalog.Provider
	Addresses      catalog.AddressBook
	Checkout       *checkout.Service
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	cartHandler := NewCartHandler(d.Carts, d.Catalog, d.RequestTimeout)
	accountHandler := NewAccountHandler(d.Store, d.Addresses, d.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.Carts, d.Store, d.Addresses, d.Checkout, d.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware(d.Logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if browser, ok := d.Catalog.(Browser); ok {
			catalogHandler := NewCatalogHandler(browser, d.RequestTimeout)
			r.Get("/products", catalogHandler.Products)
			r.Get("/categories", catalogHandler.Categories)
		}

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Patch("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
				r.Post("/open", cartHandler.Open)
				r.Post("/close", cartHandler.Close)
				r.Post("/toggle", cartHandler.Toggle)
			})

			r.Route("/account", func(r chi.Router) {
				r.Get("/", accountHandler.Get)
				r.Post("/login", accountHandler.Login)
				r.Post("/logout", accountHandler.Logout)
				r.Put("/card", accountHandler.SaveCard)
				r.Delete("/card", accountHandler.ClearCard)
				r.Put("/address", accountHandler.SaveAddress)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", checkoutHandler.Checkout)
				r.Get("/readiness", checkoutHandler.Readiness)
				r.Get("/summary", checkoutHandler.Summary)
				r.Delete("/summary", checkoutHandler.ClearSummary)
			})
		})
	})

	return r
}
