package orderrepofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/money"
	"github.com/jrsteele09/store-insights/orders"
)

var _ orders.Repo = (*FakeOrderRepo)(nil)

type FakeOrderRepo struct {
	orders    map[string]*orders.Order // tenantID/externalID -> order
	customers customers.Repo
	lock      sync.RWMutex

	UpsertErr error
}

// NewFakeOrderRepo creates an in-memory order repo. The customer repo, when given, is used to join
// customers in List.
func NewFakeOrderRepo(customerRepo customers.Repo) *FakeOrderRepo {
	return &FakeOrderRepo{
		orders:    make(map[string]*orders.Order),
		customers: customerRepo,
	}
}

func (or *FakeOrderRepo) Upsert(_ context.Context, order *orders.Order) error {
	or.lock.Lock()
	defer or.lock.Unlock()
	if or.UpsertErr != nil {
		return or.UpsertErr
	}

	key := order.TenantID + "/" + order.ExternalID
	if existing, ok := or.orders[key]; ok {
		existing.TotalPrice = order.TotalPrice
		existing.CustomerID = order.CustomerID
		existing.SyncedAt = time.Now().UTC()
		order.ID = existing.ID
		return nil
	}
	stored := *order
	stored.ID = uuid.New().String()
	stored.Customer = nil
	stored.CreatedAt = order.CreatedAt.UTC()
	stored.SyncedAt = time.Now().UTC()
	or.orders[key] = &stored
	order.ID = stored.ID
	return nil
}

func (or *FakeOrderRepo) List(ctx context.Context, tenantID string, r orders.Range) ([]*orders.Order, error) {
	or.lock.RLock()
	list := make([]*orders.Order, 0)
	for _, o := range or.orders {
		if o.TenantID == tenantID && r.Contains(o.CreatedAt) {
			cp := *o
			list = append(list, &cp)
		}
	}
	or.lock.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if or.customers != nil {
		for _, o := range list {
			if o.CustomerID == "" {
				continue
			}
			if c, err := or.customers.Get(ctx, tenantID, o.CustomerID); err == nil {
				o.Customer = c
			}
		}
	}
	return list, nil
}

func (or *FakeOrderRepo) Summary(_ context.Context, tenantID string) (orders.Summary, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()
	var s orders.Summary
	for _, o := range or.orders {
		if o.TenantID == tenantID {
			s.Count++
			s.Revenue += o.TotalPrice
		}
	}
	return s, nil
}

func (or *FakeOrderRepo) SumForCustomer(_ context.Context, tenantID, customerID string) (money.Amount, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()
	var total money.Amount
	for _, o := range or.orders {
		if o.TenantID == tenantID && o.CustomerID == customerID {
			total += o.TotalPrice
		}
	}
	return total, nil
}
