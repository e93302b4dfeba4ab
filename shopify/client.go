// Package shopify talks to the Shopify Admin REST API.
package shopify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIVersion = "2024-01"
	DefaultPageLimit  = 250
	DefaultTimeout    = 30 * time.Second

	accessTokenHeader = "X-Shopify-Access-Token"
)

type Options struct {
	APIVersion string
	PageLimit  int
	Timeout    time.Duration
	// BaseURL replaces https://{shop} when set.
	BaseURL string
}

// Client fetches a single page of each synced resource per request.
type Client struct {
	http       *resty.Client
	apiVersion string
	pageLimit  int
	baseURL    string
}

func NewClient(opts Options) *Client {
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	http := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetLogger(restyLogger{})
	return &Client{
		http:       http,
		apiVersion: opts.APIVersion,
		pageLimit:  opts.PageLimit,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
	}
}

func (c *Client) Customers(ctx context.Context, shop, accessToken string) ([]Customer, error) {
	var page customersPage
	if err := c.get(ctx, shop, accessToken, "customers", nil, &page); err != nil {
		return nil, err
	}
	return page.Customers, nil
}

func (c *Client) Products(ctx context.Context, shop, accessToken string) ([]Product, error) {
	var page productsPage
	if err := c.get(ctx, shop, accessToken, "products", nil, &page); err != nil {
		return nil, err
	}
	return page.Products, nil
}

// Orders includes closed and cancelled orders.
func (c *Client) Orders(ctx context.Context, shop, accessToken string) ([]Order, error) {
	var page ordersPage
	if err := c.get(ctx, shop, accessToken, "orders", map[string]string{"status": "any"}, &page); err != nil {
		return nil, err
	}
	return page.Orders, nil
}

func (c *Client) resourceURL(shop, resource string) string {
	base := c.baseURL
	if base == "" {
		base = "https://" + shop
	}
	return fmt.Sprintf("%s/admin/api/%s/%s.json", base, c.apiVersion, resource)
}

func (c *Client) get(ctx context.Context, shop, accessToken, resource string, params map[string]string, result any) error {
	if shop == "" || accessToken == "" {
		return errors.New("shop domain and access token are required")
	}
	apiErr := &errorBody{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(accessTokenHeader, accessToken).
		SetQueryParam("limit", strconv.Itoa(c.pageLimit)).
		SetQueryParams(params).
		SetResult(result).
		SetError(apiErr).
		Get(c.resourceURL(shop, resource))
	if err != nil {
		return errors.Wrapf(err, "fetch %s from %s", resource, shop)
	}
	if resp.IsError() {
		return errors.WithMessagef(&APIError{StatusCode: resp.StatusCode(), Message: apiErr.message()}, "fetch %s from %s", resource, shop)
	}
	log.Debug().Str("shop", shop).Str("resource", resource).Dur("took", resp.Time()).Msg("Fetched from shopify")
	return nil
}

type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { log.Error().Msgf(strings.TrimSpace(format), v...) }
func (restyLogger) Warnf(format string, v ...any)  { log.Warn().Msgf(strings.TrimSpace(format), v...) }
func (restyLogger) Debugf(format string, v ...any) { log.Debug().Msgf(strings.TrimSpace(format), v...) }
