package customers

import (
	"context"

	"github.com/jrsteele09/store-insights/internal/money"
)

type Repo interface {
	// Upsert inserts or updates by (ExternalID, TenantID) and sets customer.ID to the local id.
	Upsert(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, tenantID, customerID string) (*Customer, error)
	GetByExternalID(ctx context.Context, tenantID, externalID string) (*Customer, error)
	SetTotalSpent(ctx context.Context, tenantID, customerID string, total money.Amount) error
	Count(ctx context.Context, tenantID string) (int, error)
	// Top returns the tenant's customers with the highest total spent first.
	Top(ctx context.Context, tenantID string, limit int) ([]*Customer, error)
}
