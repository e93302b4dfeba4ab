package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/internal/money"
)

const customerColumns = `id, tenant_id, external_id, email, first_name, last_name, total_spent_cents, created_at, updated_at`

func (s *CustomerRepo) Upsert(ctx context.Context, c *customers.Customer) error {
	now := time.Now().UTC()
	createdAt := toMillis(now)
	if !c.CreatedAt.IsZero() {
		createdAt = toMillis(c.CreatedAt)
	}
	var id string
	err := s.db.QueryRowContext(ctx, s.rebind(`
INSERT INTO customers (`+customerColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (external_id, tenant_id) DO UPDATE SET
    email = excluded.email,
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    total_spent_cents = excluded.total_spent_cents,
    updated_at = excluded.updated_at
RETURNING id, created_at`),
		uuid.New().String(), c.TenantID, c.ExternalID, c.Email, c.FirstName, c.LastName,
		int64(c.TotalSpent), createdAt, toMillis(now),
	).Scan(&id, &createdAt)
	if err != nil {
		return errors.Wrapf(err, "upsert customer %s", c.ExternalID)
	}
	c.ID = id
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = now
	return nil
}

func (s *CustomerRepo) Get(ctx context.Context, tenantID, customerID string) (*customers.Customer, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+customerColumns+` FROM customers WHERE tenant_id = ? AND id = ?`),
		tenantID, customerID)
	return scanCustomer(row)
}

func (s *CustomerRepo) GetByExternalID(ctx context.Context, tenantID, externalID string) (*customers.Customer, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+customerColumns+` FROM customers WHERE tenant_id = ? AND external_id = ?`),
		tenantID, externalID)
	return scanCustomer(row)
}

func (s *CustomerRepo) SetTotalSpent(ctx context.Context, tenantID, customerID string, total money.Amount) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE customers SET total_spent_cents = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`),
		int64(total), toMillis(time.Now()), tenantID, customerID)
	if err != nil {
		return errors.Wrapf(err, "set total spent for customer %s", customerID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (s *CustomerRepo) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM customers WHERE tenant_id = ?`), tenantID).Scan(&n)
	if err != nil {
		return 0, errors.Wrapf(err, "count customers")
	}
	return n, nil
}

func (s *CustomerRepo) Top(ctx context.Context, tenantID string, limit int) ([]*customers.Customer, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+customerColumns+` FROM customers
WHERE tenant_id = ?
ORDER BY total_spent_cents DESC, id ASC
LIMIT ?`), tenantID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "list top customers")
	}
	defer rows.Close()

	list := make([]*customers.Customer, 0, limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCustomer(row rowScanner) (*customers.Customer, error) {
	var (
		c                    customers.Customer
		spent                int64
		createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.ExternalID, &c.Email, &c.FirstName, &c.LastName, &spent, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scan customer")
	}
	c.TotalSpent = money.Amount(spent)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}
