package orders

import (
	"time"

	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/money"
)

// Order is a store order synced from the commerce platform.
type Order struct {
	ID         string              `json:"id"`
	TenantID   string              `json:"tenantId"`
	ExternalID string              `json:"shopifyOrderId"`
	CustomerID string              `json:"customerId,omitempty"` // Local customer id, empty for guest or unknown customers
	Customer   *customers.Customer `json:"customer"`             // Populated by List
	TotalPrice money.Amount        `json:"totalPrice"`
	Currency   string              `json:"currency"`
	CreatedAt  time.Time           `json:"createdAt"` // When the order was placed on the store
	SyncedAt   time.Time           `json:"syncedAt"`
}

// Summary aggregates a tenant's orders.
type Summary struct {
	Revenue money.Amount
	Count   int
}
