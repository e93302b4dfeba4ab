package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/store-insights/analytics"
	"github.com/jrsteele09/store-insights/internal/money"
	"github.com/jrsteele09/store-insights/orders"
	"github.com/rs/zerolog/log"
)

const dashboardDays = 30

// DashboardPageData contains data for rendering the dashboard
type DashboardPageData struct {
	AppName      string
	StoreName    string
	ShopDomain   string
	LastSyncedAt time.Time
	Linked       bool
	StartDate    string
	EndDate      string
	Error        string
	Dashboard    *analytics.Dashboard
	MaxRevenue   money.Amount
}

// BarWidth scales a day's revenue to a percentage of the best day.
func (d DashboardPageData) BarWidth(revenue money.Amount) int {
	if d.MaxRevenue <= 0 {
		return 0
	}
	return int(revenue * 100 / d.MaxRevenue)
}

// DashboardHandler renders the metrics page (GET /dashboard)
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("dashboard.html")
	if err != nil {
		panic("Failed to parse dashboard template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tenant := TenantFromContext(r.Context())

		data := DashboardPageData{
			AppName:      s.config.GetAppName(),
			StoreName:    tenant.StoreName,
			ShopDomain:   tenant.ShopDomain,
			LastSyncedAt: tenant.LastSyncedAt,
			Linked:       tenant.Linked(),
			StartDate:    r.URL.Query().Get("startDate"),
			EndDate:      r.URL.Query().Get("endDate"),
		}
		if data.StartDate == "" && data.EndDate == "" {
			today := time.Now().UTC()
			data.StartDate = today.AddDate(0, 0, -(dashboardDays - 1)).Format(time.DateOnly)
			data.EndDate = today.Format(time.DateOnly)
		}

		dateRange, err := orders.ParseRange(data.StartDate, data.EndDate)
		if err != nil {
			data.Error = "Invalid date range"
			dateRange = orders.Range{}
		}

		dashboard, err := s.services.Analytics.Dashboard(r.Context(), tenant.ID, dateRange, analytics.DefaultTopCustomers)
		if err != nil {
			log.Err(err).Str("tenant", tenant.ID).Msg("Failed to load dashboard")
			http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
			return
		}
		data.Dashboard = dashboard
		for _, day := range dashboard.Trend {
			if day.Revenue > data.MaxRevenue {
				data.MaxRevenue = day.Revenue
			}
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render dashboard template")
		}
	}
}
