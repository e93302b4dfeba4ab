package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/tenants"
)

const tenantColumns = `id, store_name, shop_domain, access_token, password_hash, created_at, last_synced_at`

// Upsert inserts or replaces a tenant by ID, assigning one when empty.
func (s *TenantRepo) Upsert(ctx context.Context, tenant *tenants.Tenant) error {
	if tenant.ShopDomain == "" {
		return errors.Wrapf(errors.ErrInvalidTenant, "shop domain is required")
	}
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO tenants (`+tenantColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    store_name = excluded.store_name,
    shop_domain = excluded.shop_domain,
    access_token = excluded.access_token,
    password_hash = excluded.password_hash`),
		tenant.ID, tenant.StoreName, tenant.ShopDomain, tenant.AccessToken, tenant.PasswordHash,
		toMillis(tenant.CreatedAt), toMillis(tenant.LastSyncedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "upsert tenant %s", tenant.ShopDomain)
	}
	return nil
}

func (s *TenantRepo) Get(ctx context.Context, tenantID string) (*tenants.Tenant, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+tenantColumns+` FROM tenants WHERE id = ?`), tenantID)
	return scanTenant(row)
}

func (s *TenantRepo) GetByDomain(ctx context.Context, shopDomain string) (*tenants.Tenant, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+tenantColumns+` FROM tenants WHERE shop_domain = ?`),
		tenants.NormaliseDomain(shopDomain))
	return scanTenant(row)
}

func (s *TenantRepo) List(ctx context.Context, offset, limit int) ([]*tenants.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+tenantColumns+` FROM tenants ORDER BY id LIMIT ? OFFSET ?`),
		limit, offset)
	if err != nil {
		return nil, errors.Wrapf(err, "list tenants")
	}
	defer rows.Close()

	var list []*tenants.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (s *TenantRepo) Delete(ctx context.Context, tenantID string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tenants WHERE id = ?`), tenantID); err != nil {
		return errors.Wrapf(err, "delete tenant %s", tenantID)
	}
	return nil
}

func (s *TenantRepo) SetAccessToken(ctx context.Context, tenantID, accessToken string) error {
	return s.updateTenant(ctx, `UPDATE tenants SET access_token = ? WHERE id = ?`, accessToken, tenantID)
}

func (s *TenantRepo) SetLastSynced(ctx context.Context, tenantID string, at time.Time) error {
	return s.updateTenant(ctx, `UPDATE tenants SET last_synced_at = ? WHERE id = ?`, toMillis(at), tenantID)
}

func (s *TenantRepo) updateTenant(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return errors.Wrapf(err, "update tenant")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrTenantNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*tenants.Tenant, error) {
	var (
		t                     tenants.Tenant
		createdAt, lastSynced int64
	)
	err := row.Scan(&t.ID, &t.StoreName, &t.ShopDomain, &t.AccessToken, &t.PasswordHash, &createdAt, &lastSynced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrTenantNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scan tenant")
	}
	t.CreatedAt = fromMillis(createdAt)
	t.LastSyncedAt = fromMillis(lastSynced)
	return &t, nil
}
