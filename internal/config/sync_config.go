package config

import "time"

type SyncConfig interface {
	GetSyncSchedule() string
	GetSyncOnStartup() bool
}

type ShopifyConfig interface {
	GetShopifyAPIVersion() string
	GetShopifyPageLimit() int
	GetShopifyTimeout() time.Duration
	GetShopifyAPIKey() string
	GetShopifyAPISecret() string
	GetShopifyScopes() []string
}

type Sync struct {
	Schedule  string `env:"SYNC_SCHEDULE" envDefault:"0 * * * *"`
	OnStartup bool   `env:"SYNC_ON_STARTUP" envDefault:"false"`
}

var _ SyncConfig = Sync{}

func (s Sync) GetSyncSchedule() string {
	return s.Schedule
}

func (s Sync) GetSyncOnStartup() bool {
	return s.OnStartup
}

type Shopify struct {
	APIVersion string        `env:"SHOPIFY_API_VERSION" envDefault:"2024-01"`
	PageLimit  int           `env:"SHOPIFY_PAGE_LIMIT" envDefault:"250"`
	Timeout    time.Duration `env:"SHOPIFY_TIMEOUT" envDefault:"30s"`
	APIKey     string        `env:"SHOPIFY_API_KEY"`
	APISecret  string        `env:"SHOPIFY_API_SECRET"`
	Scopes     []string      `env:"SHOPIFY_SCOPES" envSeparator:"," envDefault:"read_customers,read_products,read_orders"`
}

var _ ShopifyConfig = Shopify{}

func (s Shopify) GetShopifyAPIVersion() string {
	return s.APIVersion
}

func (s Shopify) GetShopifyPageLimit() int {
	return s.PageLimit
}

func (s Shopify) GetShopifyTimeout() time.Duration {
	return s.Timeout
}

// GetShopifyAPIKey returns the app's client id. The install flow is disabled when empty.
func (s Shopify) GetShopifyAPIKey() string {
	return s.APIKey
}

func (s Shopify) GetShopifyAPISecret() string {
	return s.APISecret
}

func (s Shopify) GetShopifyScopes() []string {
	return s.Scopes
}
