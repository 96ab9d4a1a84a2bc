package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// errNotFound is the client-internal marker for 404 responses
var errNotFound = errors.New("not found")

// APIClient talks to the storefront REST backend.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	sfg        singleflight.Group // collapses concurrent lookups of the same product
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *APIClient) FetchProduct(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := c.sfg.Do("product:"+strconv.FormatInt(id, 10), func() (interface{}, error) {
		var p domain.Product
		if err := c.requestJSON(ctx, http.MethodGet, fmt.Sprintf("/products/%d/", id), nil, &p); err != nil {
			if errors.Is(err, errNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}

	// copy so callers never share the singleflight result
	p := *v.(*domain.Product)
	return &p, nil
}

func (c *APIClient) FetchCategoryName(ctx context.Context, categoryID int64) (string, error) {
	var category domain.Category
	if err := c.requestJSON(ctx, http.MethodGet, fmt.Sprintf("/categories/%d/", categoryID), nil, &category); err != nil {
		if errors.Is(err, errNotFound) {
			return "", ErrCategoryNotFound
		}
		return "", fmt.Errorf("failed to fetch category %d: %w", categoryID, err)
	}
	return category.Name, nil
}

// LatestAddress lists the backend addresses and picks the client's newest one.
func (c *APIClient) LatestAddress(ctx context.Context, clientID int64) (*domain.Address, error) {
	var addresses []domain.Address
	if err := c.requestJSON(ctx, http.MethodGet, "/addresses/", nil, &addresses); err != nil {
		return nil, fmt.Errorf("failed to fetch addresses: %w", err)
	}

	var owned []domain.Address
	for _, a := range addresses {
		if a.ClientID == clientID {
			owned = append(owned, a)
		}
	}
	if len(owned) == 0 {
		return nil, ErrAddressNotFound
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })
	return &owned[0], nil
}

func (c *APIClient) CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	payload := map[string]interface{}{
		"street":    addr.Street,
		"number":    addr.Number,
		"city":      addr.City,
		"client_id": addr.ClientID,
	}

	var created domain.Address
	if err := c.requestJSON(ctx, http.MethodPost, "/addresses/", payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return &created, nil
}

func (c *APIClient) requestJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if text := strings.TrimSpace(string(msg)); text != "" {
			return errors.New(text)
		}
		return fmt.Errorf("HTTP error %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}
