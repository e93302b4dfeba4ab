package customerrepofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/internal/money"
)

var _ customers.Repo = (*FakeCustomerRepo)(nil)

type FakeCustomerRepo struct {
	customers map[string]*customers.Customer // local id -> customer
	external  map[string]string              // tenantID/externalID -> local id
	lock      sync.RWMutex

	// UpsertErr, when set, is returned by every Upsert call.
	UpsertErr error
}

func NewFakeCustomerRepo() *FakeCustomerRepo {
	return &FakeCustomerRepo{
		customers: make(map[string]*customers.Customer),
		external:  make(map[string]string),
	}
}

func externalKey(tenantID, externalID string) string {
	return tenantID + "/" + externalID
}

func (cr *FakeCustomerRepo) Upsert(_ context.Context, customer *customers.Customer) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	if cr.UpsertErr != nil {
		return cr.UpsertErr
	}

	now := time.Now().UTC()
	key := externalKey(customer.TenantID, customer.ExternalID)
	if id, ok := cr.external[key]; ok {
		existing := cr.customers[id]
		existing.Email = customer.Email
		existing.FirstName = customer.FirstName
		existing.LastName = customer.LastName
		existing.TotalSpent = customer.TotalSpent
		existing.UpdatedAt = now
		customer.ID = id
		return nil
	}

	stored := *customer
	stored.ID = uuid.New().String()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	cr.customers[stored.ID] = &stored
	cr.external[key] = stored.ID
	customer.ID = stored.ID
	return nil
}

func (cr *FakeCustomerRepo) Get(_ context.Context, tenantID, customerID string) (*customers.Customer, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	c, ok := cr.customers[customerID]
	if !ok || c.TenantID != tenantID {
		return nil, errors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (cr *FakeCustomerRepo) GetByExternalID(_ context.Context, tenantID, externalID string) (*customers.Customer, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	id, ok := cr.external[externalKey(tenantID, externalID)]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *cr.customers[id]
	return &cp, nil
}

func (cr *FakeCustomerRepo) SetTotalSpent(_ context.Context, tenantID, customerID string, total money.Amount) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	c, ok := cr.customers[customerID]
	if !ok || c.TenantID != tenantID {
		return errors.ErrNotFound
	}
	c.TotalSpent = total
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (cr *FakeCustomerRepo) Count(_ context.Context, tenantID string) (int, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	n := 0
	for _, c := range cr.customers {
		if c.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (cr *FakeCustomerRepo) Top(_ context.Context, tenantID string, limit int) ([]*customers.Customer, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	list := make([]*customers.Customer, 0)
	for _, c := range cr.customers {
		if c.TenantID == tenantID {
			cp := *c
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].TotalSpent == list[j].TotalSpent {
			return list[i].ID < list[j].ID
		}
		return list[i].TotalSpent > list[j].TotalSpent
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
