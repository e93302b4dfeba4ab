package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/store-insights/analytics"
	"github.com/jrsteele09/store-insights/ingest"
	"github.com/jrsteele09/store-insights/internal/cache"
	"github.com/jrsteele09/store-insights/internal/config"
	"github.com/jrsteele09/store-insights/internal/metrics"
	"github.com/jrsteele09/store-insights/server"
	"github.com/jrsteele09/store-insights/shopify"
	"github.com/jrsteele09/store-insights/storage/sqlstore"
	"github.com/jrsteele09/store-insights/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}
	setupLogging(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver:          c.GetDatabaseDriver(),
		DSN:             c.GetDatabaseURL(),
		MaxOpenConns:    c.GetMaxOpenConns(),
		MaxIdleConns:    c.GetMaxIdleConns(),
		ConnMaxLifetime: c.GetConnMaxLifetime(),
	})
	if err != nil {
		return fmt.Errorf("sqlstore.Open: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	resultCache, err := cache.New(ctx, cache.Options{RedisURL: c.GetRedisURL(), TTL: c.GetCacheTTL()})
	if err != nil {
		return fmt.Errorf("cache.New: %w", err)
	}
	defer func() { _ = resultCache.Close() }()

	m := metrics.New()
	insights := analytics.New(store.Customers(), store.Orders(),
		analytics.WithCache(resultCache),
		analytics.WithCacheRecorder(m),
	)

	client := shopify.NewClient(shopify.Options{
		APIVersion: c.GetShopifyAPIVersion(),
		PageLimit:  c.GetShopifyPageLimit(),
		Timeout:    c.GetShopifyTimeout(),
	})
	syncer := ingest.NewSyncer(store.Tenants(), store.Customers(), store.Products(), store.Orders(), client,
		ingest.WithRecorder(m),
		ingest.WithInvalidator(insights),
	)
	scheduler, err := ingest.NewScheduler(syncer, c.GetSyncSchedule(), c.GetSyncOnStartup())
	if err != nil {
		return fmt.Errorf("ingest.NewScheduler: %w", err)
	}

	secret := c.GetJWTSecret()
	if secret == "" {
		if secret, err = randomSecret(); err != nil {
			return err
		}
		log.Warn().Msg("JWT_SECRET not set, sessions will not survive a restart")
	}
	tokens := token.New(token.NewHMACSigner(secret),
		token.WithSessionTTL(c.GetSessionTTL()),
		token.WithIssuer(c.GetBaseURL()),
	)

	handler, err := server.New(c, server.Services{
		Tenants:   store.Tenants(),
		Products:  store.Products(),
		Analytics: insights,
		Syncer:    syncer,
		Tokens:    tokens,
		Installer: shopify.NewInstaller(shopify.InstallerOptions{
			APIKey:      c.GetShopifyAPIKey(),
			APISecret:   c.GetShopifyAPISecret(),
			Scopes:      c.GetShopifyScopes(),
			RedirectURL: c.GetBaseURL() + server.RouteShopifyCallback,
		}),
		Metrics:  m,
		Database: store,
	})
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	defer handler.Close()

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	return g.Wait()
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func setupLogging(env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
