// Package ingest pulls customers, products and orders from a store into the local repos.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/orders"
	"github.com/jrsteele09/store-insights/products"
	"github.com/jrsteele09/store-insights/shopify"
	"github.com/jrsteele09/store-insights/tenants"
	"github.com/rs/zerolog/log"
)

const (
	ResourceCustomers = "customers"
	ResourceProducts  = "products"
	ResourceOrders    = "orders"
)

// Source fetches one page of each resource for a shop.
type Source interface {
	Customers(ctx context.Context, shop, accessToken string) ([]shopify.Customer, error)
	Products(ctx context.Context, shop, accessToken string) ([]shopify.Product, error)
	Orders(ctx context.Context, shop, accessToken string) ([]shopify.Order, error)
}

var _ Source = (*shopify.Client)(nil)

// Recorder receives sync metrics.
type Recorder interface {
	ObserveSyncStage(resource string, records int, err error, d time.Duration)
	ObserveTenantSynced(tenantID string, at time.Time)
}

// Invalidator drops derived data for a tenant after its records change.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}

type nopRecorder struct{}

func (nopRecorder) ObserveSyncStage(string, int, error, time.Duration) {}
func (nopRecorder) ObserveTenantSynced(string, time.Time)             {}

type Syncer struct {
	tenants   tenants.Repo
	customers customers.Repo
	products  products.Repo
	orders    orders.Repo
	source    Source

	recorder     Recorder
	invalidators []Invalidator
	nowFunc      func() time.Time

	mu      sync.Mutex
	running map[string]bool
	last    map[string]*Report
}

type SyncerOption func(*Syncer)

func WithRecorder(r Recorder) SyncerOption {
	return func(s *Syncer) {
		s.recorder = r
	}
}

func WithInvalidator(inv Invalidator) SyncerOption {
	return func(s *Syncer) {
		s.invalidators = append(s.invalidators, inv)
	}
}

func WithNowFunc(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		s.nowFunc = now
	}
}

func NewSyncer(tenantRepo tenants.Repo, customerRepo customers.Repo, productRepo products.Repo, orderRepo orders.Repo, source Source, options ...SyncerOption) *Syncer {
	s := &Syncer{
		tenants:   tenantRepo,
		customers: customerRepo,
		products:  productRepo,
		orders:    orderRepo,
		source:    source,
		recorder:  nopRecorder{},
		nowFunc:   time.Now,
		running:   make(map[string]bool),
		last:      make(map[string]*Report),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Status reports whether a tenant sync is running and the report of its last completed run.
func (s *Syncer) Status(tenantID string) (running bool, last *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[tenantID], s.last[tenantID]
}

func (s *Syncer) begin(tenantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[tenantID] {
		return false
	}
	s.running[tenantID] = true
	return true
}

func (s *Syncer) end(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, report.TenantID)
	s.last[report.TenantID] = report
}

// SyncTenant runs the customers, products and orders stages in that order. A failing stage is
// recorded in the report and does not stop the stages after it.
func (s *Syncer) SyncTenant(ctx context.Context, tenantID string) (*Report, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.Linked() {
		return nil, errors.Wrapf(errors.ErrStoreNotLinked, "tenant %s", tenant.StoreName)
	}
	if !s.begin(tenant.ID) {
		return nil, errors.Wrapf(errors.ErrSyncInProgress, "tenant %s", tenant.StoreName)
	}

	report := &Report{TenantID: tenant.ID, StoreName: tenant.StoreName, StartedAt: s.nowFunc().UTC()}
	defer s.end(report)

	logger := log.With().Str("tenant", tenant.ID).Str("store", tenant.StoreName).Logger()
	logger.Info().Msg("Starting sync")

	report.add(s.runStage(tenant.ID, ResourceCustomers, func() (int, int, error) { return s.syncCustomers(ctx, tenant) }))
	report.add(s.runStage(tenant.ID, ResourceProducts, func() (int, int, error) { return s.syncProducts(ctx, tenant) }))
	report.add(s.runStage(tenant.ID, ResourceOrders, func() (int, int, error) { return s.syncOrders(ctx, tenant) }))

	report.FinishedAt = s.nowFunc().UTC()
	if err := s.tenants.SetLastSynced(ctx, tenant.ID, report.FinishedAt); err != nil {
		logger.Error().Err(err).Msg("Failed to record last sync time")
	}
	for _, inv := range s.invalidators {
		if err := inv.Invalidate(ctx, tenant.ID); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate tenant cache")
		}
	}
	s.recorder.ObserveTenantSynced(tenant.ID, report.FinishedAt)

	event := logger.Info()
	if report.Failed() {
		event = logger.Warn()
	}
	event.Int("failedStages", report.FailedStages()).Dur("took", report.FinishedAt.Sub(report.StartedAt)).Msg("Sync complete")
	return report, nil
}

// SyncAll syncs every linked tenant one after another.
func (s *Syncer) SyncAll(ctx context.Context) ([]*Report, error) {
	all, err := tenants.ListAll(ctx, s.tenants)
	if err != nil {
		return nil, errors.Wrapf(err, "list tenants")
	}
	log.Info().Int("tenants", len(all)).Msg("Running scheduled sync")

	reports := make([]*Report, 0, len(all))
	for _, tenant := range all {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if !tenant.Linked() {
			log.Debug().Str("tenant", tenant.ID).Msg("Skipping tenant with no access token")
			continue
		}
		report, err := s.SyncTenant(ctx, tenant.ID)
		if err != nil {
			log.Error().Err(err).Str("tenant", tenant.ID).Msg("Tenant sync failed")
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *Syncer) runStage(tenantID, resource string, stage func() (fetched, upserted int, err error)) StageResult {
	started := s.nowFunc()
	fetched, upserted, err := stage()
	took := s.nowFunc().Sub(started)
	s.recorder.ObserveSyncStage(resource, upserted, err, took)

	result := StageResult{Resource: resource, Fetched: fetched, Upserted: upserted}
	if err != nil {
		result.setErr(err)
		log.Error().Err(err).Str("tenant", tenantID).Str("resource", resource).Int("count", upserted).Msg("Sync stage failed")
		return result
	}
	log.Info().Str("tenant", tenantID).Str("resource", resource).Int("count", upserted).Dur("took", took).Msg("Sync stage complete")
	return result
}

func (s *Syncer) syncCustomers(ctx context.Context, tenant *tenants.Tenant) (int, int, error) {
	remote, err := s.source.Customers(ctx, tenant.ShopDomain, tenant.AccessToken)
	if err != nil {
		return 0, 0, err
	}
	upserted := 0
	for _, rc := range remote {
		c := &customers.Customer{
			TenantID:   tenant.ID,
			ExternalID: rc.ExternalID(),
			Email:      rc.Email,
			FirstName:  rc.FirstName,
			LastName:   rc.LastName,
			TotalSpent: rc.TotalSpent,
			CreatedAt:  rc.CreatedAt,
		}
		if err := s.customers.Upsert(ctx, c); err != nil {
			return len(remote), upserted, errors.Wrapf(err, "upsert customer %s", c.ExternalID)
		}
		upserted++
	}
	return len(remote), upserted, nil
}

func (s *Syncer) syncProducts(ctx context.Context, tenant *tenants.Tenant) (int, int, error) {
	remote, err := s.source.Products(ctx, tenant.ShopDomain, tenant.AccessToken)
	if err != nil {
		return 0, 0, err
	}
	upserted := 0
	for _, rp := range remote {
		p := &products.Product{
			TenantID:   tenant.ID,
			ExternalID: rp.ExternalID(),
			Title:      rp.Title,
			CreatedAt:  rp.CreatedAt,
		}
		if err := s.products.Upsert(ctx, p); err != nil {
			return len(remote), upserted, errors.Wrapf(err, "upsert product %s", p.ExternalID)
		}
		upserted++
	}
	return len(remote), upserted, nil
}

// syncOrders links each order to a known customer and recomputes that customer's total spent
// from the locally stored orders.
func (s *Syncer) syncOrders(ctx context.Context, tenant *tenants.Tenant) (int, int, error) {
	remote, err := s.source.Orders(ctx, tenant.ShopDomain, tenant.AccessToken)
	if err != nil {
		return 0, 0, err
	}
	upserted := 0
	for _, ro := range remote {
		customerID, err := s.resolveCustomer(ctx, tenant.ID, ro.CustomerExternalID())
		if err != nil {
			return len(remote), upserted, err
		}
		o := &orders.Order{
			TenantID:   tenant.ID,
			ExternalID: ro.ExternalID(),
			CustomerID: customerID,
			TotalPrice: ro.TotalPrice,
			Currency:   ro.Currency,
			CreatedAt:  ro.CreatedAt,
		}
		if err := s.orders.Upsert(ctx, o); err != nil {
			return len(remote), upserted, errors.Wrapf(err, "upsert order %s", o.ExternalID)
		}
		upserted++

		if customerID == "" {
			continue
		}
		total, err := s.orders.SumForCustomer(ctx, tenant.ID, customerID)
		if err != nil {
			return len(remote), upserted, errors.Wrapf(err, "sum orders for customer %s", customerID)
		}
		if err := s.customers.SetTotalSpent(ctx, tenant.ID, customerID, total); err != nil {
			return len(remote), upserted, errors.Wrapf(err, "set total spent for customer %s", customerID)
		}
		log.Debug().Str("tenant", tenant.ID).Str("customer", customerID).Stringer("totalSpent", total).Msg("Updated customer total spent")
	}
	return len(remote), upserted, nil
}

func (s *Syncer) resolveCustomer(ctx context.Context, tenantID, externalID string) (string, error) {
	if externalID == "" {
		return "", nil
	}
	c, err := s.customers.GetByExternalID(ctx, tenantID, externalID)
	if errors.Is(err, errors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "lookup customer %s", externalID)
	}
	return c.ID, nil
}
