package tenantrepofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

type FakeTenantRepo struct {
	tenants map[string]*tenants.Tenant
	lock    sync.RWMutex
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{
		tenants: make(map[string]*tenants.Tenant),
	}
}

func (tr *FakeTenantRepo) Upsert(_ context.Context, tenantData *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	for id, t := range tr.tenants {
		if t.ShopDomain == tenantData.ShopDomain && id != tenantData.ID {
			return errors.Wrapf(errors.ErrInvalidTenant, "shop domain %s already registered", t.ShopDomain)
		}
	}
	if tenantData.ID == "" {
		tenantData.ID = uuid.New().String()
	}
	stored := *tenantData
	tr.tenants[tenantData.ID] = &stored
	return nil
}

func (tr *FakeTenantRepo) Delete(_ context.Context, tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	delete(tr.tenants, tenantID)
	return nil
}

func (tr *FakeTenantRepo) Get(_ context.Context, tenantID string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return nil, errors.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (tr *FakeTenantRepo) GetByDomain(_ context.Context, shopDomain string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	domain := tenants.NormaliseDomain(shopDomain)
	for _, t := range tr.tenants {
		if t.ShopDomain == domain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, errors.ErrTenantNotFound
}

func (tr *FakeTenantRepo) List(_ context.Context, offset, limit int) ([]*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	list := make([]*tenants.Tenant, 0, len(tr.tenants))
	for _, t := range tr.tenants {
		cp := *t
		list = append(list, &cp)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}

func (tr *FakeTenantRepo) SetAccessToken(_ context.Context, tenantID, accessToken string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return errors.ErrTenantNotFound
	}
	t.AccessToken = accessToken
	return nil
}

func (tr *FakeTenantRepo) SetLastSynced(_ context.Context, tenantID string, at time.Time) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return errors.ErrTenantNotFound
	}
	t.LastSyncedAt = at.UTC()
	return nil
}
