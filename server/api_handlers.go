package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/store-insights/analytics"
	"github.com/jrsteele09/store-insights/customers"
	"github.com/jrsteele09/store-insights/ingest"
	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/internal/utils"
	"github.com/jrsteele09/store-insights/orders"
	"github.com/jrsteele09/store-insights/products"
	"github.com/jrsteele09/store-insights/tenants"
	"github.com/rs/zerolog/log"
)

const (
	defaultProductPage = 50
	maxProductPage     = 250
	maxLoginBodyBytes  = 1 << 16
)

type LoginRequest struct {
	ShopDomain string `json:"shopDomain"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Message   string    `json:"message"`
	TenantID  string    `json:"tenantId"`
	StoreName string    `json:"storeName"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SyncStatusResponse struct {
	Running      bool           `json:"running"`
	LastSyncedAt *time.Time     `json:"lastSyncedAt"`
	LastReport   *ingest.Report `json:"lastReport,omitempty"`
}

type ProductsResponse struct {
	Total    int                 `json:"total"`
	Offset   int                 `json:"offset"`
	Limit    int                 `json:"limit"`
	Products []*products.Product `json:"products"`
}

// login checks the shop's dashboard password and issues a session token.
func (s *Server) login(ctx context.Context, shopDomain, password string) (*tenants.Tenant, *LoginResponse, error) {
	if strings.TrimSpace(shopDomain) == "" || password == "" {
		return nil, nil, errors.ErrInvalidCredentials
	}
	tenant, err := s.services.Tenants.GetByDomain(ctx, shopDomain)
	if errors.Is(err, errors.ErrTenantNotFound) {
		return nil, nil, errors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !tenant.CheckPassword(password) {
		return nil, nil, errors.ErrInvalidCredentials
	}
	session, err := s.services.Tokens.Issue(tenant.ID)
	if err != nil {
		return nil, nil, err
	}
	return tenant, &LoginResponse{
		Message:   "Login successful",
		TenantID:  tenant.ID,
		StoreName: tenant.StoreName,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// LoginAPIHandler handles POST /api/login
func (s *Server) LoginAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)).Decode(&req); err != nil {
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		tenant, resp, err := s.login(r.Context(), req.ShopDomain, req.Password)
		if err != nil {
			if errors.Is(err, errors.ErrInvalidCredentials) {
				log.Info().Str("shop", tenants.NormaliseDomain(req.ShopDomain)).Msg("Failed API login")
			}
			writeServiceError(w, r, err)
			return
		}
		log.Info().Str("tenant", tenant.ID).Msg("API login")
		writeJSON(w, http.StatusOK, resp)
	}
}

// StatsHandler handles GET /api/stats
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := TenantFromContext(r.Context())
		stats, err := s.services.Analytics.Stats(r.Context(), tenant.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// OrdersHandler handles GET /api/orders?startDate=&endDate=
// The range applies only when both bounds are set. A YYYY-MM-DD endDate includes that whole
// UTC day rather than stopping at its midnight, and a startDate after endDate is a 400 rather
// than an empty list.
func (s *Server) OrdersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := TenantFromContext(r.Context())
		dateRange, err := rangeFromQuery(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		list, err := s.services.Analytics.Orders(r.Context(), tenant.ID, dateRange)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if list == nil {
			list = []*orders.Order{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// SalesTrendHandler handles GET /api/orders/trend?startDate=&endDate=
func (s *Server) SalesTrendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := TenantFromContext(r.Context())
		dateRange, err := rangeFromQuery(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		trend, err := s.services.Analytics.SalesTrend(r.Context(), tenant.ID, dateRange)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if trend == nil {
			trend = []analytics.DailySales{}
		}
		writeJSON(w, http.StatusOK, trend)
	}
}

// TopCustomersHandler handles GET /api/customers/top?limit=
func (s *Server) TopCustomersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := TenantFromContext(r.Context())
		limit, err := intQuery(r, "limit")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		top, err := s.services.Analytics.TopCustomers(r.Context(), tenant.ID, limit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if top == nil {
			top = []*customers.Customer{}
		}
		writeJSON(w, http.StatusOK, top)
	}
}

// ProductsHandler handles GET /api/products?offset=&limit=
func (s *Server) ProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services.Products == nil {
			writeServiceError(w, r, errors.ErrUnsupported)
			return
		}
		tenant := TenantFromContext(r.Context())
		offset, err := intQuery(r, "offset")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		limit, err := intQuery(r, "limit")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		limit = utils.ClampInt(limit, defaultProductPage, 1, maxProductPage)
		if offset < 0 {
			offset = 0
		}

		total, err := s.services.Products.Count(r.Context(), tenant.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		list, err := s.services.Products.List(r.Context(), tenant.ID, offset, limit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if list == nil {
			list = []*products.Product{}
		}
		writeJSON(w, http.StatusOK, ProductsResponse{Total: total, Offset: offset, Limit: limit, Products: list})
	}
}

// SyncHandler handles POST /api/sync. The sync runs in the background unless ?wait=true.
func (s *Server) SyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := TenantFromContext(r.Context())
		if !tenant.Linked() {
			writeServiceError(w, r, errors.ErrStoreNotLinked)
			return
		}

		if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
			report, err := s.services.Syncer.SyncTenant(r.Context(), tenant.ID)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, report)
			return
		}

		if running, _ := s.services.Syncer.Status(tenant.ID); running {
			writeServiceError(w, r, errors.ErrSyncInProgress)
			return
		}
		s.goBackground(func(ctx context.Context) {
			if _, err := s.services.Syncer.SyncTenant(ctx, tenant.ID); err != nil {
				log.Err(err).Str("tenant", tenant.ID).Msg("Requested sync failed")
			}
		})
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
	}
}

// SyncStatusHandler handles GET /api/sync/status
func (s *Server) SyncStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := TenantFromContext(r.Context())
		running, last := s.services.Syncer.Status(tenant.ID)
		resp := SyncStatusResponse{Running: running, LastReport: last}
		if !tenant.LastSyncedAt.IsZero() {
			resp.LastSyncedAt = utils.Ptr(tenant.LastSyncedAt)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func rangeFromQuery(r *http.Request) (orders.Range, error) {
	q := r.URL.Query()
	return orders.ParseRange(q.Get("startDate"), q.Get("endDate"))
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidRequest, "%s must be an integer", name)
	}
	return v, nil
}
