package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/internal/money"
	"github.com/jrsteele09/store-insights/orders"
)

func (s *OrderRepo) Upsert(ctx context.Context, o *orders.Order) error {
	now := time.Now().UTC()
	var id string
	err := s.db.QueryRowContext(ctx, s.rebind(`
INSERT INTO orders (id, tenant_id, external_id, customer_id, total_price_cents, currency, created_at, synced_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (external_id, tenant_id) DO UPDATE SET
    total_price_cents = excluded.total_price_cents,
    customer_id = excluded.customer_id,
    synced_at = excluded.synced_at
RETURNING id`),
		uuid.New().String(), o.TenantID, o.ExternalID, nullString(o.CustomerID), int64(o.TotalPrice),
		o.Currency, toMillis(o.CreatedAt), toMillis(now),
	).Scan(&id)
	if err != nil {
		return errors.Wrapf(err, "upsert order %s", o.ExternalID)
	}
	o.ID = id
	o.SyncedAt = now
	return nil
}

func (s *OrderRepo) List(ctx context.Context, tenantID string, r orders.Range) ([]*orders.Order, error) {
	query := `SELECT o.id, o.tenant_id, o.external_id, o.customer_id, o.total_price_cents, o.currency, o.created_at, o.synced_at,
    c.id, c.external_id, c.email, c.first_name, c.last_name, c.total_spent_cents, c.created_at, c.updated_at
FROM orders o
LEFT JOIN customers c ON c.id = o.customer_id AND c.tenant_id = o.tenant_id
WHERE o.tenant_id = ?`
	args := []any{tenantID}
	if r.Active() {
		query += ` AND o.created_at >= ? AND o.created_at <= ?`
		args = append(args, toMillis(r.From), toMillis(r.To))
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders")
	}
	defer rows.Close()

	list := make([]*orders.Order, 0)
	for rows.Next() {
		o, err := scanOrderWithCustomer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func (s *OrderRepo) Summary(ctx context.Context, tenantID string) (orders.Summary, error) {
	var (
		revenue int64
		count   int
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT CAST(COALESCE(SUM(total_price_cents), 0) AS BIGINT), COUNT(*)
FROM orders WHERE tenant_id = ?`), tenantID).Scan(&revenue, &count)
	if err != nil {
		return orders.Summary{}, errors.Wrapf(err, "summarise orders")
	}
	return orders.Summary{Revenue: money.Amount(revenue), Count: count}, nil
}

func (s *OrderRepo) SumForCustomer(ctx context.Context, tenantID, customerID string) (money.Amount, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT CAST(COALESCE(SUM(total_price_cents), 0) AS BIGINT)
FROM orders WHERE tenant_id = ? AND customer_id = ?`), tenantID, customerID).Scan(&total)
	if err != nil {
		return 0, errors.Wrapf(err, "sum orders for customer %s", customerID)
	}
	return money.Amount(total), nil
}

func scanOrderWithCustomer(row rowScanner) (*orders.Order, error) {
	var (
		o                   orders.Order
		customerID          sql.NullString
		price               int64
		createdAt, syncedAt int64

		cID, cExternal, cEmail, cFirst, cLast sql.NullString
		cSpent, cCreated, cUpdated            sql.NullInt64
	)
	err := row.Scan(&o.ID, &o.TenantID, &o.ExternalID, &customerID, &price, &o.Currency, &createdAt, &syncedAt,
		&cID, &cExternal, &cEmail, &cFirst, &cLast, &cSpent, &cCreated, &cUpdated)
	if err != nil {
		return nil, errors.Wrapf(err, "scan order")
	}
	o.CustomerID = customerID.String
	o.TotalPrice = money.Amount(price)
	o.CreatedAt = fromMillis(createdAt)
	o.SyncedAt = fromMillis(syncedAt)
	if cID.Valid {
		o.Customer = &customers.Customer{
			ID:         cID.String,
			TenantID:   o.TenantID,
			ExternalID: cExternal.String,
			Email:      cEmail.String,
			FirstName:  cFirst.String,
			LastName:   cLast.String,
			TotalSpent: money.Amount(cSpent.Int64),
			CreatedAt:  fromMillis(cCreated.Int64),
			UpdatedAt:  fromMillis(cUpdated.Int64),
		}
	}
	return &o, nil
}
