package domain

import "time"

// CheckoutSummary is what the shopper sees after a completed purchase.
type CheckoutSummary struct {
	CheckoutID    string     `json:"checkoutId"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	Address       string     `json:"address"`
	Total         float64    `json:"total"`
	PurchasedAt   time.Time  `json:"purchasedAt"`
	Items         []LineItem `json:"items"`
}

const EventCheckoutCompleted = "CheckoutCompleted"

// CheckoutCompletedEvent is published once a checkout finishes. SessionID
// identifies the cart slot that has to be dropped.
type CheckoutCompletedEvent struct {
	CheckoutID  string     `json:"checkout_id"`
	SessionID   string     `json:"session_id"`
	UserEmail   string     `json:"user_email"`
	ClientID    int64      `json:"client_id,omitempty"`
	Items       []LineItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
	Currency    string     `json:"currency"`
	CompletedAt time.Time  `json:"completed_at"`
}
