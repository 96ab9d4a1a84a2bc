package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var errMalformed = errors.New("malformed cart state")

type persistedState struct {
	Items []domain.LineItem `json:"items"`
}

func encodeItems(items []domain.LineItem) (string, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(persistedState{Items: items})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeItems accepts {"items":[...]} and, for slots written by older
// storefront builds, a bare array of items.
func decodeItems(raw string) ([]domain.LineItem, error) {
	data := bytes.TrimSpace([]byte(raw))

	var items []domain.LineItem
	switch {
	case len(data) > 0 && data[0] == '{':
		var state persistedState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
		items = state.Items
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
	default:
		return nil, fmt.Errorf("%w: not a JSON object or array", errMalformed)
	}

	if err := validate(items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	return items, nil
}

func validate(items []domain.LineItem) error {
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("%w: duplicate product %d", errMalformed, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}

		if item.Quantity < 1 || item.Quantity > item.StockCeiling {
			return fmt.Errorf("%w: product %d quantity %d outside 1..%d",
				errMalformed, item.ProductID, item.Quantity, item.StockCeiling)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: product %d has negative price", errMalformed, item.ProductID)
		}
	}
	return nil
}
