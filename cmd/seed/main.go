// Command seed loads tenants from a YAML file into the database and optionally syncs them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jrsteele09/store-insights/ingest"
	"github.com/jrsteele09/store-insights/internal/config"
	"github.com/jrsteele09/store-insights/shopify"
	"github.com/jrsteele09/store-insights/storage/sqlstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "tenants.yaml", "YAML file listing tenants to seed")
	update := flag.Bool("update", false, "overwrite name, token and password of existing tenants")
	syncAfter := flag.Bool("sync", false, "sync every seeded tenant after loading")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	if err := run(*file, *update, *syncAfter); err != nil {
		log.Fatal().Err(err).Msg("Seed failed")
	}
}

func run(file string, update, syncAfter bool) error {
	c, err := config.New()
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	seeds, err := readSeeds(f)
	if err != nil {
		return err
	}

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
	defer store.Close()

	result, err := applySeeds(ctx, store.Tenants(), seeds, update)
	if err != nil {
		return err
	}
	log.Info().
		Int("created", len(result.Created)).
		Int("updated", len(result.Updated)).
		Int("skipped", len(result.Skipped)).
		Msg("Seed complete")

	if !syncAfter {
		return nil
	}
	syncer := ingest.NewSyncer(store.Tenants(), store.Customers(), store.Products(), store.Orders(),
		shopify.NewClient(shopify.Options{
			APIVersion: c.GetShopifyAPIVersion(),
			PageLimit:  c.GetShopifyPageLimit(),
			Timeout:    c.GetShopifyTimeout(),
		}),
	)
	for _, t := range result.All() {
		if !t.Linked() {
			log.Warn().Str("shop", t.ShopDomain).Msg("No access token, skipping sync")
			continue
		}
		report, err := syncer.SyncTenant(ctx, t.ID)
		if err != nil {
			log.Err(err).Str("shop", t.ShopDomain).Msg("Sync failed")
			continue
		}
		for _, stage := range report.Stages {
			log.Info().Str("shop", t.ShopDomain).Str("resource", stage.Resource).
				Int("fetched", stage.Fetched).Int("upserted", stage.Upserted).Str("error", stage.Error).
				Msg("Sync stage")
		}
	}
	return nil
}
