package customers

import (
	"strings"
	"time"

	"github.com/jrsteele09/store-insights/internal/money"
)

// Customer is a store customer synced from the commerce platform.
type Customer struct {
	ID         string       `json:"id"`
	TenantID   string       `json:"tenantId"`
	ExternalID string       `json:"shopifyCustomerId"` // Remote (Shopify) customer id, unique per tenant
	Email      string       `json:"email"`
	FirstName  string       `json:"firstName"`
	LastName   string       `json:"lastName"`
	TotalSpent money.Amount `json:"totalSpent"` // Lifetime spend, recomputed from local orders during sync
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// DisplayName returns "First Last", falling back to the email.
func (c *Customer) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}
