// Package analytics answers the dashboard's tenant-scoped read queries.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/internal/cache"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/internal/money"
	"github.com/jrsteele09/store-insights/internal/utils"
	"github.com/jrsteele09/store-insights/orders"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopCustomers = 5
	MaxTopCustomers     = 50

	dayLayout   = "2006-01-02"
	maxFillDays = 366
)

// Stats are the dashboard headline numbers.
type Stats struct {
	TotalRevenue   money.Amount `json:"totalRevenue"`
	TotalOrders    int          `json:"totalOrders"`
	TotalCustomers int          `json:"totalCustomers"`
}

// DailySales is one point of the sales chart.
type DailySales struct {
	Date    string       `json:"date"` // UTC day, YYYY-MM-DD
	Revenue money.Amount `json:"revenue"`
	Orders  int          `json:"orders"`
}

// Dashboard bundles everything the dashboard page renders.
type Dashboard struct {
	Stats        *Stats                `json:"stats"`
	Trend        []DailySales          `json:"trend"`
	TopCustomers []*customers.Customer `json:"topCustomers"`
}

// CacheRecorder is told about cache hits and misses.
type CacheRecorder interface {
	ObserveCache(key string, hit bool)
}

type nopCacheRecorder struct{}

func (nopCacheRecorder) ObserveCache(string, bool) {}

type Service struct {
	customers customers.Repo
	orders    orders.Repo
	cache     cache.Cache
	recorder  CacheRecorder
}

type ServiceOption func(*Service)

func WithCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		s.cache = c
	}
}

func WithCacheRecorder(r CacheRecorder) ServiceOption {
	return func(s *Service) {
		s.recorder = r
	}
}

func New(customerRepo customers.Repo, orderRepo orders.Repo, options ...ServiceOption) *Service {
	s := &Service{
		customers: customerRepo,
		orders:    orderRepo,
		recorder:  nopCacheRecorder{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Stats returns revenue, order count and customer count for the tenant.
func (s *Service) Stats(ctx context.Context, tenantID string) (*Stats, error) {
	stats := &Stats{}
	err := s.cached(ctx, tenantID, "stats", "stats", stats, func() error {
		summary, err := s.orders.Summary(ctx, tenantID)
		if err != nil {
			return errors.Wrapf(err, "order summary")
		}
		customerCount, err := s.customers.Count(ctx, tenantID)
		if err != nil {
			return errors.Wrapf(err, "count customers")
		}
		*stats = Stats{TotalRevenue: summary.Revenue, TotalOrders: summary.Count, TotalCustomers: customerCount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Orders lists the tenant's orders newest first, filtered when both range bounds are set.
func (s *Service) Orders(ctx context.Context, tenantID string, r orders.Range) ([]*orders.Order, error) {
	list, err := s.orders.List(ctx, tenantID, r)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders")
	}
	return list, nil
}

// TopCustomers returns the highest spending customers. limit <= 0 means the default of 5.
func (s *Service) TopCustomers(ctx context.Context, tenantID string, limit int) ([]*customers.Customer, error) {
	limit = utils.ClampInt(limit, DefaultTopCustomers, 1, MaxTopCustomers)
	var top []*customers.Customer
	err := s.cached(ctx, tenantID, "top", fmt.Sprintf("top:%d", limit), &top, func() error {
		var err error
		top, err = s.customers.Top(ctx, tenantID, limit)
		return errors.Wrapf(err, "top customers")
	})
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []*customers.Customer{}
	}
	return top, nil
}

// SalesTrend buckets order totals by UTC day in ascending order. Days without orders are
// filled in with zeroes when the span is at most a year.
func (s *Service) SalesTrend(ctx context.Context, tenantID string, r orders.Range) ([]DailySales, error) {
	key := "trend"
	if r.Active() {
		key = fmt.Sprintf("trend:%d:%d", r.From.UnixMilli(), r.To.UnixMilli())
	}
	var trend []DailySales
	err := s.cached(ctx, tenantID, "trend", key, &trend, func() error {
		list, err := s.orders.List(ctx, tenantID, r)
		if err != nil {
			return errors.Wrapf(err, "list orders")
		}
		trend = bucketByDay(list, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trend, nil
}

// Dashboard loads stats, trend and top customers concurrently.
func (s *Service) Dashboard(ctx context.Context, tenantID string, r orders.Range, topLimit int) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Stats, err = s.Stats(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		d.Trend, err = s.SalesTrend(gctx, tenantID, r)
		return err
	})
	g.Go(func() error {
		var err error
		d.TopCustomers, err = s.TopCustomers(gctx, tenantID, topLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// Invalidate drops every cached result for the tenant.
func (s *Service) Invalidate(ctx context.Context, tenantID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, tenantID)
}

// cached decodes key into out when present, otherwise runs load and stores out. The
// store is skipped by the cache when the tenant was invalidated while load ran.
func (s *Service) cached(ctx context.Context, tenantID, label, key string, out any, load func() error) error {
	if s.cache == nil {
		return load()
	}
	version, err := s.cache.Version(ctx, tenantID)
	if err != nil {
		log.Warn().Err(err).Str("tenant", tenantID).Msg("Cache version read failed")
		s.recorder.ObserveCache(label, false)
		return load()
	}
	raw, err := s.cache.Get(ctx, tenantID, version, key)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(raw, out); jerr == nil {
			s.recorder.ObserveCache(label, true)
			return nil
		}
		log.Warn().Str("tenant", tenantID).Str("key", key).Msg("Discarding undecodable cache entry")
	case !errors.Is(err, cache.ErrMiss):
		log.Warn().Err(err).Str("tenant", tenantID).Str("key", key).Msg("Cache read failed")
	}
	s.recorder.ObserveCache(label, false)

	if err := load(); err != nil {
		return err
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := s.cache.Set(ctx, tenantID, version, key, encoded); err != nil {
		log.Warn().Err(err).Str("tenant", tenantID).Str("key", key).Msg("Cache write failed")
	}
	return nil
}

func bucketByDay(list []*orders.Order, r orders.Range) []DailySales {
	byDay := make(map[string]*DailySales)
	var first, last time.Time
	for _, o := range list {
		day := o.CreatedAt.UTC().Truncate(24 * time.Hour)
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
		k := day.Format(dayLayout)
		bucket, ok := byDay[k]
		if !ok {
			bucket = &DailySales{Date: k}
			byDay[k] = bucket
		}
		bucket.Revenue += o.TotalPrice
		bucket.Orders++
	}
	if r.Active() {
		first = r.From.UTC().Truncate(24 * time.Hour)
		last = r.To.UTC().Truncate(24 * time.Hour)
	}

	trend := make([]DailySales, 0, len(byDay))
	if first.IsZero() {
		return trend
	}
	if last.Sub(first) <= maxFillDays*24*time.Hour {
		for day := first; !day.After(last); day = day.Add(24 * time.Hour) {
			k := day.Format(dayLayout)
			if bucket, ok := byDay[k]; ok {
				trend = append(trend, *bucket)
			} else {
				trend = append(trend, DailySales{Date: k})
			}
		}
		return trend
	}
	for _, bucket := range byDay {
		trend = append(trend, *bucket)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })
	return trend
}
