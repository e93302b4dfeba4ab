package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/products"
)

func (s *ProductRepo) Upsert(ctx context.Context, p *products.Product) error {
	now := time.Now().UTC()
	var (
		id        string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
INSERT INTO products (id, tenant_id, external_id, title, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (external_id, tenant_id) DO UPDATE SET
    title = excluded.title,
    updated_at = excluded.updated_at
RETURNING id, created_at`),
		uuid.New().String(), p.TenantID, p.ExternalID, p.Title, toMillis(now), toMillis(now),
	).Scan(&id, &createdAt)
	if err != nil {
		return errors.Wrapf(err, "upsert product %s", p.ExternalID)
	}
	p.ID = id
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = now
	return nil
}

func (s *ProductRepo) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM products WHERE tenant_id = ?`), tenantID).Scan(&n)
	if err != nil {
		return 0, errors.Wrapf(err, "count products")
	}
	return n, nil
}

func (s *ProductRepo) List(ctx context.Context, tenantID string, offset, limit int) ([]*products.Product, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, tenant_id, external_id, title, created_at, updated_at
FROM products
WHERE tenant_id = ?
ORDER BY title ASC, id ASC
LIMIT ? OFFSET ?`), tenantID, limit, offset)
	if err != nil {
		return nil, errors.Wrapf(err, "list products")
	}
	defer rows.Close()

	list := make([]*products.Product, 0)
	for rows.Next() {
		var (
			p                    products.Product
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.ExternalID, &p.Title, &createdAt, &updatedAt); err != nil {
			return nil, errors.Wrapf(err, "scan product")
		}
		p.CreatedAt = fromMillis(createdAt)
		p.UpdatedAt = fromMillis(updatedAt)
		list = append(list, &p)
	}
	return list, rows.Err()
}
