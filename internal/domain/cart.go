package domain

import "github.com/shopspring/decimal"

// LineItem is one product in a shopper's cart. Name, price, stock, category
// and image are captured when the product is added and never re-fetched.
type LineItem struct {
	ProductID     int64   `json:"id"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	StockCeiling  int     `json:"stock"`
	CategoryLabel string  `json:"categoryName"`
	ImageRef      string  `json:"imageSrc"`
}

// Subtotal is quantity times unit price for this line.
func (i LineItem) Subtotal() float64 {
	return decimal.NewFromFloat(i.UnitPrice).Mul(decimal.NewFromInt(int64(i.Quantity))).InexactFloat64()
}

// AtCap reports whether the quantity reached the stock ceiling.
func (i LineItem) AtCap() bool {
	return i.Quantity >= i.StockCeiling
}

type CartSnapshot struct {
	Items          []LineItem `json:"items"`
	TotalItemCount int        `json:"total_item_count"`
	TotalPrice     float64    `json:"total_price"`
	IsOpen         bool       `json:"is_open"`
}
