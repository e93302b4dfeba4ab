package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/store-insights/analytics"
	"github.com/jrsteele09/store-insights/ingest"
	"github.com/jrsteele09/store-insights/internal/config"
	"github.com/jrsteele09/store-insights/products"
	"github.com/jrsteele09/store-insights/shopify"
	"github.com/jrsteele09/store-insights/tenants"
	"github.com/jrsteele09/store-insights/token"
	"github.com/rs/zerolog/log"
)

// Syncer runs and reports on tenant syncs.
type Syncer interface {
	SyncTenant(ctx context.Context, tenantID string) (*ingest.Report, error)
	Status(tenantID string) (running bool, last *ingest.Report)
}

// Metrics records requests and exposes the scrape endpoint.
type Metrics interface {
	ObserveRequest(method, route string, status int, d time.Duration)
	Handler() http.Handler
}

// Pinger checks a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the dependencies the handlers call into.
type Services struct {
	Tenants   tenants.Repo
	Products  products.Repo
	Analytics *analytics.Service
	Syncer    Syncer
	Tokens    *token.Manager
	Installer *shopify.Installer // Optional; install routes answer 501 without it
	Metrics   Metrics            // Optional
	Database  Pinger             // Optional
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	services Services

	background sync.WaitGroup
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

func New(config config.Config, services Services) (*Server, error) {
	if services.Tenants == nil || services.Analytics == nil || services.Tokens == nil || services.Syncer == nil {
		return nil, fmt.Errorf("[Server New] tenants, analytics, tokens and syncer are required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		services: services,
	}
	s.env = config.GetEnv()
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Close cancels background syncs started over HTTP and waits for them to return.
func (s *Server) Close() {
	s.cancelBase()
	s.background.Wait()
}

// goBackground runs fn detached from the request that started it.
func (s *Server) goBackground(fn func(ctx context.Context)) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn(s.baseCtx)
	}()
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
