package products

import (
	"context"
	"time"
)

// Product is a catalogue entry synced from the commerce platform.
type Product struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	ExternalID string    `json:"shopifyProductId"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Repo interface {
	// Upsert inserts or updates the title by (ExternalID, TenantID) and sets product.ID.
	Upsert(ctx context.Context, product *Product) error
	Count(ctx context.Context, tenantID string) (int, error)
	List(ctx context.Context, tenantID string, offset, limit int) ([]*Product, error)
}
