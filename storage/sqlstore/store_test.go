package sqlstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/internal/money"
	"github.com/jrsteele09/store-insights/orders"
	"github.com/jrsteele09/store-insights/products"
	"github.com/jrsteele09/store-insights/storage/sqlstore"
	"github.com/jrsteele09/store-insights/tenants"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	store, err := sqlstore.Open(context.Background(), sqlstore.Options{Driver: sqlstore.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTenant(t *testing.T, store *sqlstore.Store, domain string) *tenants.Tenant {
	t.Helper()
	tenant, err := tenants.New("Store "+domain, domain, "shpat_token", "Password1")
	require.NoError(t, err)
	require.NoError(t, store.Tenants().Upsert(context.Background(), tenant))
	return tenant
}

func TestOpen_RejectsBadOptions(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), sqlstore.Options{Driver: sqlstore.DriverSQLite})
	require.Error(t, err)

	_, err = sqlstore.Open(context.Background(), sqlstore.Options{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
}

func TestTenantRepo(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := store.Tenants()

	tenant := createTenant(t, store, "alpha.myshopify.com")
	require.NotEmpty(t, tenant.ID)

	got, err := repo.Get(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, "alpha.myshopify.com", got.ShopDomain)
	require.Equal(t, "shpat_token", got.AccessToken)
	require.True(t, got.CheckPassword("Password1"))
	require.True(t, got.LastSyncedAt.IsZero())

	byDomain, err := repo.GetByDomain(ctx, "https://ALPHA.myshopify.com/")
	require.NoError(t, err)
	require.Equal(t, tenant.ID, byDomain.ID)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, errors.ErrTenantNotFound)

	syncedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastSynced(ctx, tenant.ID, syncedAt))
	require.NoError(t, repo.SetAccessToken(ctx, tenant.ID, "shpat_new"))
	got, err = repo.Get(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, syncedAt, got.LastSyncedAt)
	require.Equal(t, "shpat_new", got.AccessToken)

	require.ErrorIs(t, repo.SetAccessToken(ctx, "missing", "x"), errors.ErrTenantNotFound)

	createTenant(t, store, "beta.myshopify.com")
	all, err := tenants.ListAll(ctx, repo)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, tenant.ID))
	_, err = repo.Get(ctx, tenant.ID)
	require.ErrorIs(t, err, errors.ErrTenantNotFound)
}

func TestCustomerRepo_UpsertIsKeyedByExternalIDAndTenant(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := store.Customers()
	a := createTenant(t, store, "a.myshopify.com")
	b := createTenant(t, store, "b.myshopify.com")

	first := &customers.Customer{TenantID: a.ID, ExternalID: "1001", Email: "old@example.com", FirstName: "Ann", TotalSpent: 500}
	require.NoError(t, repo.Upsert(ctx, first))

	update := &customers.Customer{TenantID: a.ID, ExternalID: "1001", Email: "new@example.com", FirstName: "Ann", LastName: "Lee", TotalSpent: 900}
	require.NoError(t, repo.Upsert(ctx, update))
	require.Equal(t, first.ID, update.ID)

	other := &customers.Customer{TenantID: b.ID, ExternalID: "1001", Email: "b@example.com"}
	require.NoError(t, repo.Upsert(ctx, other))
	require.NotEqual(t, first.ID, other.ID)

	got, err := repo.GetByExternalID(ctx, a.ID, "1001")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", got.Email)
	require.Equal(t, "Lee", got.LastName)
	require.Equal(t, money.Amount(900), got.TotalSpent)

	n, err := repo.Count(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = repo.GetByExternalID(ctx, a.ID, "9999")
	require.ErrorIs(t, err, errors.ErrNotFound)

	// Tenant isolation on lookups by local id.
	_, err = repo.Get(ctx, b.ID, first.ID)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCustomerRepo_UpsertKeepsRemoteCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := store.Customers()
	tenant := createTenant(t, store, "a.myshopify.com")
	created := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)

	c := &customers.Customer{TenantID: tenant.ID, ExternalID: "1001", CreatedAt: created}
	require.NoError(t, repo.Upsert(ctx, c))
	require.True(t, created.Equal(c.CreatedAt))

	resync := &customers.Customer{TenantID: tenant.ID, ExternalID: "1001", CreatedAt: created.Add(time.Hour)}
	require.NoError(t, repo.Upsert(ctx, resync))
	require.True(t, created.Equal(resync.CreatedAt))

	got, err := repo.GetByExternalID(ctx, tenant.ID, "1001")
	require.NoError(t, err)
	require.True(t, created.Equal(got.CreatedAt))

	fresh := &customers.Customer{TenantID: tenant.ID, ExternalID: "1002"}
	require.NoError(t, repo.Upsert(ctx, fresh))
	require.WithinDuration(t, time.Now(), fresh.CreatedAt, time.Minute)
}

func TestCustomerRepo_Top(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := store.Customers()
	tenant := createTenant(t, store, "top.myshopify.com")

	for i := 1; i <= 7; i++ {
		c := &customers.Customer{TenantID: tenant.ID, ExternalID: fmt.Sprint(i), TotalSpent: money.Amount(i * 1000)}
		require.NoError(t, repo.Upsert(ctx, c))
	}

	top, err := repo.Top(ctx, tenant.ID, 5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	require.Equal(t, "7", top[0].ExternalID)
	require.Equal(t, "3", top[4].ExternalID)

	require.NoError(t, repo.SetTotalSpent(ctx, tenant.ID, top[4].ID, 100000))
	top, err = repo.Top(ctx, tenant.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "3", top[0].ExternalID)
}

func TestProductRepo(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := store.Products()
	tenant := createTenant(t, store, "p.myshopify.com")

	p := &products.Product{TenantID: tenant.ID, ExternalID: "55", Title: "Mug"}
	require.NoError(t, repo.Upsert(ctx, p))
	renamed := &products.Product{TenantID: tenant.ID, ExternalID: "55", Title: "Coffee Mug"}
	require.NoError(t, repo.Upsert(ctx, renamed))
	require.Equal(t, p.ID, renamed.ID)
	require.NoError(t, repo.Upsert(ctx, &products.Product{TenantID: tenant.ID, ExternalID: "56", Title: "Apron"}))

	n, err := repo.Count(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	list, err := repo.List(ctx, tenant.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Apron", list[0].Title)
	require.Equal(t, "Coffee Mug", list[1].Title)
}

func TestOrderRepo(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	tenant := createTenant(t, store, "o.myshopify.com")
	other := createTenant(t, store, "other.myshopify.com")

	customer := &customers.Customer{TenantID: tenant.ID, ExternalID: "c1", FirstName: "Bo", Email: "bo@example.com"}
	require.NoError(t, store.Customers().Upsert(ctx, customer))

	repo := store.Orders()
	jan := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)

	o1 := &orders.Order{TenantID: tenant.ID, ExternalID: "o1", CustomerID: customer.ID, TotalPrice: 2500, Currency: "USD", CreatedAt: jan}
	o2 := &orders.Order{TenantID: tenant.ID, ExternalID: "o2", TotalPrice: 1000, Currency: "USD", CreatedAt: feb}
	o3 := &orders.Order{TenantID: other.ID, ExternalID: "o1", TotalPrice: 99999, Currency: "EUR", CreatedAt: feb}
	for _, o := range []*orders.Order{o1, o2, o3} {
		require.NoError(t, repo.Upsert(ctx, o))
	}

	// Re-upserting changes price and link but keeps currency and created-at.
	o1Update := &orders.Order{TenantID: tenant.ID, ExternalID: "o1", CustomerID: customer.ID, TotalPrice: 3000, Currency: "CAD", CreatedAt: feb}
	require.NoError(t, repo.Upsert(ctx, o1Update))
	require.Equal(t, o1.ID, o1Update.ID)

	list, err := repo.List(ctx, tenant.ID, orders.Range{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "o2", list[0].ExternalID)
	require.Nil(t, list[0].Customer)
	require.Equal(t, "o1", list[1].ExternalID)
	require.Equal(t, "USD", list[1].Currency)
	require.Equal(t, jan, list[1].CreatedAt)
	require.Equal(t, money.Amount(3000), list[1].TotalPrice)
	require.NotNil(t, list[1].Customer)
	require.Equal(t, "bo@example.com", list[1].Customer.Email)

	r, err := orders.ParseRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	list, err = repo.List(ctx, tenant.ID, r)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "o1", list[0].ExternalID)

	summary, err := repo.Summary(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, orders.Summary{Revenue: 4000, Count: 2}, summary)

	empty := createTenant(t, store, "empty.myshopify.com")
	summary, err = repo.Summary(ctx, empty.ID)
	require.NoError(t, err)
	require.Equal(t, orders.Summary{}, summary)

	total, err := repo.SumForCustomer(ctx, tenant.ID, customer.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(3000), total)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	first, err := sqlstore.Open(ctx, sqlstore.Options{Driver: sqlstore.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer first.Close()
	createTenant(t, first, "keep.myshopify.com")

	second, err := sqlstore.Open(ctx, sqlstore.Options{Driver: sqlstore.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Tenants().GetByDomain(ctx, "keep.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, "keep.myshopify.com", got.ShopDomain)
}
