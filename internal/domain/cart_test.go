package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineItem_Subtotal(t *testing.T) {
	tests := []struct {
		name string
		item LineItem
		want float64
	}{
		{"whole price", LineItem{UnitPrice: 149000, Quantity: 2}, 298000},
		{"fractional price", LineItem{UnitPrice: 0.1, Quantity: 3}, 0.3},
		{"cents", LineItem{UnitPrice: 19.99, Quantity: 7}, 139.93},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Subtotal())
		})
	}
}
