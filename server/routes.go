package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	if s.services.Metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.services.Metrics.Handler())
	}

	// LOGIN / DASHBOARD
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.RequireSessionAuth())...))

	// API routes
	s.RegisterRouteFunc("OPTIONS "+RouteAPIPrefix, ChainMiddleware(preflightHandler, s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAPILogin, ChainMiddleware(s.LoginAPIHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPIStats, ChainMiddleware(s.StatsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAPIOrders, ChainMiddleware(s.OrdersHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAPIOrdersTrend, ChainMiddleware(s.SalesTrendHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAPITopCustomers, ChainMiddleware(s.TopCustomersHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAPIProducts, ChainMiddleware(s.ProductsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("POST "+RouteAPISync, ChainMiddleware(s.SyncHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAPISyncStatus, ChainMiddleware(s.SyncStatusHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Shopify app install
	s.RegisterRouteFunc("GET "+RouteShopifyInstall, ChainMiddleware(s.ShopifyInstallHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteShopifyCallback, ChainMiddleware(s.ShopifyCallbackHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteFunc("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func preflightHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	errorString := Red + error + ResetColor
	log.Warn().Msgf("[%-19s] %s %s", displayMethod, path, errorString)
}
