package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// System Routes
	RouteIndex   = "/"
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// UI Routes - Login, Logout & Dashboard
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	RouteDashboard  = "/dashboard"

	// API Routes
	RouteAPIPrefix       = "/api/"
	RouteAPILogin        = "/api/login"
	RouteAPIStats        = "/api/stats"
	RouteAPIOrders       = "/api/orders"
	RouteAPIOrdersTrend  = "/api/orders/trend"
	RouteAPITopCustomers = "/api/customers/top"
	RouteAPIProducts     = "/api/products"
	RouteAPISync         = "/api/sync"
	RouteAPISyncStatus   = "/api/sync/status"

	// Shopify App Install Routes
	RouteShopifyInstall  = "/api/shopify/install"
	RouteShopifyCallback = "/api/shopify/callback"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
