package productrepofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/products"
)

var _ products.Repo = (*FakeProductRepo)(nil)

type FakeProductRepo struct {
	products map[string]*products.Product // tenantID/externalID -> product
	lock     sync.RWMutex

	UpsertErr error
}

func NewFakeProductRepo() *FakeProductRepo {
	return &FakeProductRepo{
		products: make(map[string]*products.Product),
	}
}

func (pr *FakeProductRepo) Upsert(_ context.Context, product *products.Product) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	if pr.UpsertErr != nil {
		return pr.UpsertErr
	}

	now := time.Now().UTC()
	key := product.TenantID + "/" + product.ExternalID
	if existing, ok := pr.products[key]; ok {
		existing.Title = product.Title
		existing.UpdatedAt = now
		product.ID = existing.ID
		return nil
	}
	stored := *product
	stored.ID = uuid.New().String()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	pr.products[key] = &stored
	product.ID = stored.ID
	return nil
}

func (pr *FakeProductRepo) Count(_ context.Context, tenantID string) (int, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	n := 0
	for _, p := range pr.products {
		if p.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (pr *FakeProductRepo) List(_ context.Context, tenantID string, offset, limit int) ([]*products.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	list := make([]*products.Product, 0)
	for _, p := range pr.products {
		if p.TenantID == tenantID {
			cp := *p
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Title == list[j].Title {
			return list[i].ID < list[j].ID
		}
		return list[i].Title < list[j].Title
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
