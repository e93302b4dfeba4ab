package tenants_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jrsteele09/store-insights/tenants"
	tenantrepofakes "github.com/jrsteele09/store-insights/tenants/repofakes"
	"github.com/stretchr/testify/require"
)

func TestNormaliseDomain(t *testing.T) {
	require.Equal(t, "shop.myshopify.com", tenants.NormaliseDomain("https://Shop.MyShopify.com/"))
	require.Equal(t, "shop.myshopify.com", tenants.NormaliseDomain("  shop.myshopify.com:443/admin "))
	require.Equal(t, "", tenants.NormaliseDomain("   "))
}

func TestNew(t *testing.T) {
	tenant, err := tenants.New("", "HTTPS://dev-store.myshopify.com", "shpat_123", "Secret123")
	require.NoError(t, err)
	require.Equal(t, "dev-store.myshopify.com", tenant.ShopDomain)
	require.Equal(t, "dev-store.myshopify.com", tenant.StoreName)
	require.True(t, tenant.Linked())
	require.True(t, tenant.CheckPassword("Secret123"))
	require.False(t, tenant.CheckPassword("secret123"))

	_, err = tenants.New("Store", "", "", "")
	require.Error(t, err)
}

func TestCheckPassword_NoPasswordSet(t *testing.T) {
	tenant, err := tenants.New("Store", "store.myshopify.com", "", "")
	require.NoError(t, err)
	require.False(t, tenant.CheckPassword(""))
	require.False(t, tenant.CheckPassword("anything"))
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	repo := tenantrepofakes.NewFakeTenantRepo()
	for i := 0; i < 205; i++ {
		tenant, err := tenants.New("", fmt.Sprintf("store-%03d.myshopify.com", i), "", "")
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, tenant))
	}

	all, err := tenants.ListAll(ctx, repo)
	require.NoError(t, err)
	require.Len(t, all, 205)
}
