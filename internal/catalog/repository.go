package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repository is the demo catalog kept in SQLite.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection keeps ":memory:" databases from splitting per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

// RunMigrations creates the schema and seeds the demo categories and products.
func (r *Repository) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, price, stock, category_id
		FROM products
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) FetchProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price, stock, category_id
		FROM products
		WHERE id = ?
	`

	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (r *Repository) FetchCategoryName(ctx context.Context, categoryID int64) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, categoryID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCategoryNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query category: %w", err)
	}
	return name, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

// LatestAddress returns the most recently created address of the client.
func (r *Repository) LatestAddress(ctx context.Context, clientID int64) (*domain.Address, error) {
	query := `
		SELECT id, street, number, city, client_id
		FROM addresses
		WHERE client_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	a := &domain.Address{}
	err := r.db.QueryRowContext(ctx, query, clientID).Scan(&a.ID, &a.Street, &a.Number, &a.City, &a.ClientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return a, nil
}

func (r *Repository) CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO addresses (street, number, city, client_id) VALUES (?, ?, ?, ?)`,
		addr.Street, addr.Number, addr.City, addr.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert address: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read address id: %w", err)
	}
	addr.ID = id
	return &addr, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
