package orders

import (
	"context"

	"github.com/jrsteele09/store-insights/internal/money"
)

type Repo interface {
	// Upsert inserts by (ExternalID, TenantID); an existing order only has its total price and
	// customer link updated. order.ID is set to the local id.
	Upsert(ctx context.Context, order *Order) error
	// List returns the tenant's orders newest first, with Customer joined when linked.
	List(ctx context.Context, tenantID string, r Range) ([]*Order, error)
	Summary(ctx context.Context, tenantID string) (Summary, error)
	SumForCustomer(ctx context.Context, tenantID, customerID string) (money.Amount, error)
}
