package main

import (
	"context"
	"strings"
	"testing"

	tenantrepofakes "github.com/jrsteele09/store-insights/tenants/repofakes"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
tenants:
  - storeName: Alpha Store
    shopDomain: https://Alpha.myshopify.com/
    accessToken: ${SEED_ALPHA_TOKEN}
    password: secret-one
  - shopDomain: beta.myshopify.com
`

func TestReadSeeds(t *testing.T) {
	t.Setenv("SEED_ALPHA_TOKEN", "shpat_from_env")

	seeds, err := readSeeds(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	require.Equal(t, "shpat_from_env", seeds[0].AccessToken)
	require.Equal(t, "Alpha Store", seeds[0].StoreName)
	require.Empty(t, seeds[1].Password)
}

func TestReadSeeds_Invalid(t *testing.T) {
	_, err := readSeeds(strings.NewReader("tenants:\n  - storeName: Missing domain\n"))
	require.Error(t, err)

	_, err = readSeeds(strings.NewReader("tenants:\n  - shopDomain: a.myshopify.com\n    colour: blue\n"))
	require.Error(t, err)

	seeds, err := readSeeds(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, seeds)
}

func TestApplySeeds(t *testing.T) {
	ctx := context.Background()
	repo := tenantrepofakes.NewFakeTenantRepo()
	seeds := []TenantSeed{
		{StoreName: "Alpha Store", ShopDomain: "alpha.myshopify.com", AccessToken: "shpat_a", Password: "secret-one"},
		{ShopDomain: "beta.myshopify.com"},
	}

	result, err := applySeeds(ctx, repo, seeds, false)
	require.NoError(t, err)
	require.Len(t, result.Created, 2)

	alpha, err := repo.GetByDomain(ctx, "alpha.myshopify.com")
	require.NoError(t, err)
	require.True(t, alpha.CheckPassword("secret-one"))
	require.True(t, alpha.Linked())

	beta, err := repo.GetByDomain(ctx, "beta.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, "beta.myshopify.com", beta.StoreName)
	require.False(t, beta.CheckPassword(""))

	t.Run("existing tenants are left alone", func(t *testing.T) {
		changed := []TenantSeed{{StoreName: "Renamed", ShopDomain: "alpha.myshopify.com", Password: "secret-two"}}
		result, err := applySeeds(ctx, repo, changed, false)
		require.NoError(t, err)
		require.Len(t, result.Skipped, 1)

		got, err := repo.GetByDomain(ctx, "alpha.myshopify.com")
		require.NoError(t, err)
		require.Equal(t, "Alpha Store", got.StoreName)
		require.True(t, got.CheckPassword("secret-one"))
	})

	t.Run("update overwrites provided fields", func(t *testing.T) {
		changed := []TenantSeed{{StoreName: "Renamed", ShopDomain: "alpha.myshopify.com", Password: "secret-two"}}
		result, err := applySeeds(ctx, repo, changed, true)
		require.NoError(t, err)
		require.Len(t, result.Updated, 1)
		require.Len(t, result.All(), 1)

		got, err := repo.GetByDomain(ctx, "alpha.myshopify.com")
		require.NoError(t, err)
		require.Equal(t, alpha.ID, got.ID)
		require.Equal(t, "Renamed", got.StoreName)
		require.Equal(t, "shpat_a", got.AccessToken)
		require.True(t, got.CheckPassword("secret-two"))
	})
}
