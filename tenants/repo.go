package tenants

import (
	"context"
	"time"
)

type Repo interface {
	Upsert(ctx context.Context, tenant *Tenant) error
	Get(ctx context.Context, tenantID string) (*Tenant, error)
	GetByDomain(ctx context.Context, shopDomain string) (*Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*Tenant, error)
	Delete(ctx context.Context, tenantID string) error
	SetAccessToken(ctx context.Context, tenantID, accessToken string) error
	SetLastSynced(ctx context.Context, tenantID string, at time.Time) error
}

// ListAll pages through every tenant in the repo.
func ListAll(ctx context.Context, repo Repo) ([]*Tenant, error) {
	const pageSize = 100
	var all []*Tenant
	for offset := 0; ; offset += pageSize {
		page, err := repo.List(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
