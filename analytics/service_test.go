package analytics_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/store-insights/analytics"
	"github.com/jrsteele09/store-insights/customers"
	customerrepofakes "github.com/jrsteele09/store-insights/customers/repofakes"
	"github.com/jrsteele09/store-insights/internal/cache"
	"github.com/jrsteele09/store-insights/internal/money"
	"github.com/jrsteele09/store-insights/orders"
	orderrepofakes "github.com/jrsteele09/store-insights/orders/repofakes"
	"github.com/stretchr/testify/require"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
)

type countingRecorder struct {
	mu           sync.Mutex
	hits, misses int
}

func (r *countingRecorder) ObserveCache(_ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
		return
	}
	r.misses++
}

type testFixture struct {
	customerRepo *customerrepofakes.FakeCustomerRepo
	orderRepo    *orderrepofakes.FakeOrderRepo
	recorder     *countingRecorder
	service      *analytics.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		customerRepo: customerrepofakes.NewFakeCustomerRepo(),
		recorder:     &countingRecorder{},
	}
	f.orderRepo = orderrepofakes.NewFakeOrderRepo(f.customerRepo)
	f.service = analytics.New(f.customerRepo, f.orderRepo,
		analytics.WithCache(cache.NewMemory(time.Minute)),
		analytics.WithCacheRecorder(f.recorder),
	)
	return f
}

func (f *testFixture) addCustomer(t *testing.T, tenantID, externalID string, spent money.Amount) *customers.Customer {
	t.Helper()
	c := &customers.Customer{TenantID: tenantID, ExternalID: externalID, FirstName: "C" + externalID, TotalSpent: spent}
	require.NoError(t, f.customerRepo.Upsert(context.Background(), c))
	return c
}

func (f *testFixture) addOrder(t *testing.T, tenantID, externalID string, price money.Amount, createdAt time.Time) {
	t.Helper()
	o := &orders.Order{TenantID: tenantID, ExternalID: externalID, TotalPrice: price, Currency: "USD", CreatedAt: createdAt}
	require.NoError(t, f.orderRepo.Upsert(context.Background(), o))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	stats, err := f.service.Stats(ctx, tenantA)
	require.NoError(t, err)
	require.Equal(t, analytics.Stats{}, *stats)

	require.NoError(t, f.service.Invalidate(ctx, tenantA))
	f.addCustomer(t, tenantA, "1", 0)
	f.addCustomer(t, tenantB, "1", 0)
	f.addOrder(t, tenantA, "o1", 1000, time.Now())
	f.addOrder(t, tenantA, "o2", 2550, time.Now())
	f.addOrder(t, tenantB, "o1", 99999, time.Now())

	stats, err = f.service.Stats(ctx, tenantA)
	require.NoError(t, err)
	require.Equal(t, analytics.Stats{TotalRevenue: 3550, TotalOrders: 2, TotalCustomers: 1}, *stats)
}

func TestStats_CachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addOrder(t, tenantA, "o1", 1000, time.Now())

	stats, err := f.service.Stats(ctx, tenantA)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalOrders)
	require.Equal(t, 1, f.recorder.misses)

	f.addOrder(t, tenantA, "o2", 1000, time.Now())
	stats, err = f.service.Stats(ctx, tenantA)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalOrders)
	require.Equal(t, 1, f.recorder.hits)

	require.NoError(t, f.service.Invalidate(ctx, tenantA))
	stats, err = f.service.Stats(ctx, tenantA)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalOrders)
	require.Equal(t, money.Amount(2000), stats.TotalRevenue)
}

func TestTopCustomers(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	for i := 1; i <= 8; i++ {
		f.addCustomer(t, tenantA, fmt.Sprint(i), money.Amount(i*100))
	}
	f.addCustomer(t, tenantB, "x", 1_000_000)

	top, err := f.service.TopCustomers(ctx, tenantA, 0)
	require.NoError(t, err)
	require.Len(t, top, analytics.DefaultTopCustomers)
	require.Equal(t, "8", top[0].ExternalID)
	require.Equal(t, "4", top[4].ExternalID)
	for i := 1; i < len(top); i++ {
		require.GreaterOrEqual(t, top[i-1].TotalSpent, top[i].TotalSpent)
	}

	top, err = f.service.TopCustomers(ctx, tenantA, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	top, err = f.service.TopCustomers(ctx, tenantA, 1000)
	require.NoError(t, err)
	require.Len(t, top, 8)

	empty, err := f.service.TopCustomers(ctx, "nobody", 5)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Len(t, empty, 0)
}

func TestOrders_Range(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addOrder(t, tenantA, "jan", 100, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))
	f.addOrder(t, tenantA, "feb", 200, time.Date(2024, 2, 15, 23, 59, 0, 0, time.UTC))
	f.addOrder(t, tenantA, "mar", 300, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))

	all, err := f.service.Orders(ctx, tenantA, orders.Range{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "mar", all[0].ExternalID)

	r, err := orders.ParseRange("2024-02-01", "2024-02-15")
	require.NoError(t, err)
	feb, err := f.service.Orders(ctx, tenantA, r)
	require.NoError(t, err)
	require.Len(t, feb, 1)
	require.Equal(t, "feb", feb[0].ExternalID)

	// Only one bound: no filtering.
	r, err = orders.ParseRange("2024-02-01", "")
	require.NoError(t, err)
	all, err = f.service.Orders(ctx, tenantA, r)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSalesTrend(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addOrder(t, tenantA, "a", 100, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))
	f.addOrder(t, tenantA, "b", 250, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC))
	f.addOrder(t, tenantA, "c", 400, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))

	trend, err := f.service.SalesTrend(ctx, tenantA, orders.Range{})
	require.NoError(t, err)
	require.Equal(t, []analytics.DailySales{
		{Date: "2024-01-01", Revenue: 350, Orders: 2},
		{Date: "2024-01-02"},
		{Date: "2024-01-03", Revenue: 400, Orders: 1},
	}, trend)

	r, err := orders.ParseRange("2024-01-03", "2024-01-04")
	require.NoError(t, err)
	trend, err = f.service.SalesTrend(ctx, tenantA, r)
	require.NoError(t, err)
	require.Equal(t, []analytics.DailySales{
		{Date: "2024-01-03", Revenue: 400, Orders: 1},
		{Date: "2024-01-04"},
	}, trend)

	empty, err := f.service.SalesTrend(ctx, tenantB, orders.Range{})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.addCustomer(t, tenantA, "1", 500)
	f.addOrder(t, tenantA, "a", 500, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))

	d, err := f.service.Dashboard(ctx, tenantA, orders.Range{}, 5)
	require.NoError(t, err)
	require.Equal(t, 1, d.Stats.TotalOrders)
	require.Len(t, d.Trend, 1)
	require.Len(t, d.TopCustomers, 1)
}

// slowCountRepo blocks the first Count until release is closed.
type slowCountRepo struct {
	*customerrepofakes.FakeCustomerRepo
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *slowCountRepo) Count(ctx context.Context, tenantID string) (int, error) {
	n, err := r.FakeCustomerRepo.Count(ctx, tenantID)
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return n, err
}

func TestStats_InvalidateDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	customerRepo := &slowCountRepo{
		FakeCustomerRepo: customerrepofakes.NewFakeCustomerRepo(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	service := analytics.New(customerRepo, orderrepofakes.NewFakeOrderRepo(customerRepo.FakeCustomerRepo),
		analytics.WithCache(cache.NewMemory(time.Minute)),
	)

	done := make(chan *analytics.Stats)
	go func() {
		stats, err := service.Stats(ctx, tenantA)
		if err != nil {
			close(done)
			return
		}
		done <- stats
	}()

	<-customerRepo.entered
	require.NoError(t, customerRepo.Upsert(ctx, &customers.Customer{TenantID: tenantA, ExternalID: "1"}))
	require.NoError(t, service.Invalidate(ctx, tenantA))
	close(customerRepo.release)

	inFlight, ok := <-done
	require.True(t, ok)
	require.Equal(t, 0, inFlight.TotalCustomers)

	stats, err := service.Stats(ctx, tenantA)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalCustomers)
}
