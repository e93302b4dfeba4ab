package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/tenants"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// TenantSeed is one store entry in the seed file. Values may reference ${ENV_VARS}.
type TenantSeed struct {
	StoreName   string `yaml:"storeName"`
	ShopDomain  string `yaml:"shopDomain"`
	AccessToken string `yaml:"accessToken"`
	Password    string `yaml:"password"`
}

type seedFile struct {
	Tenants []TenantSeed `yaml:"tenants"`
}

func (t TenantSeed) expand() TenantSeed {
	return TenantSeed{
		StoreName:   os.ExpandEnv(t.StoreName),
		ShopDomain:  os.ExpandEnv(t.ShopDomain),
		AccessToken: os.ExpandEnv(t.AccessToken),
		Password:    os.ExpandEnv(t.Password),
	}
}

func readSeeds(r io.Reader) ([]TenantSeed, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	seeds := make([]TenantSeed, 0, len(f.Tenants))
	for i, t := range f.Tenants {
		t = t.expand()
		if tenants.NormaliseDomain(t.ShopDomain) == "" {
			return nil, fmt.Errorf("tenant %d: shopDomain is required", i)
		}
		seeds = append(seeds, t)
	}
	return seeds, nil
}

type seedResult struct {
	Created []*tenants.Tenant
	Updated []*tenants.Tenant
	Skipped []*tenants.Tenant
}

// All returns every tenant named in the seed file.
func (r seedResult) All() []*tenants.Tenant {
	all := make([]*tenants.Tenant, 0, len(r.Created)+len(r.Updated)+len(r.Skipped))
	all = append(all, r.Created...)
	all = append(all, r.Updated...)
	return append(all, r.Skipped...)
}

// applySeeds creates missing tenants. Existing tenants are only changed when update is set.
func applySeeds(ctx context.Context, repo tenants.Repo, seeds []TenantSeed, update bool) (seedResult, error) {
	var result seedResult
	for _, seed := range seeds {
		existing, err := repo.GetByDomain(ctx, seed.ShopDomain)
		switch {
		case errors.Is(err, errors.ErrTenantNotFound):
			t, err := tenants.New(seed.StoreName, seed.ShopDomain, seed.AccessToken, seed.Password)
			if err != nil {
				return result, fmt.Errorf("tenant %s: %w", seed.ShopDomain, err)
			}
			if err := repo.Upsert(ctx, t); err != nil {
				return result, fmt.Errorf("create tenant %s: %w", t.ShopDomain, err)
			}
			log.Info().Str("tenant", t.ID).Str("shop", t.ShopDomain).Msg("Tenant created")
			result.Created = append(result.Created, t)
		case err != nil:
			return result, fmt.Errorf("lookup tenant %s: %w", seed.ShopDomain, err)
		case !update:
			log.Info().Str("tenant", existing.ID).Str("shop", existing.ShopDomain).Msg("Tenant exists, skipping")
			result.Skipped = append(result.Skipped, existing)
		default:
			if seed.StoreName != "" {
				existing.StoreName = seed.StoreName
			}
			if seed.AccessToken != "" {
				existing.AccessToken = seed.AccessToken
			}
			if seed.Password != "" {
				if err := existing.SetPassword(seed.Password); err != nil {
					return result, fmt.Errorf("tenant %s: %w", existing.ShopDomain, err)
				}
			}
			if err := repo.Upsert(ctx, existing); err != nil {
				return result, fmt.Errorf("update tenant %s: %w", existing.ShopDomain, err)
			}
			log.Info().Str("tenant", existing.ID).Str("shop", existing.ShopDomain).Msg("Tenant updated")
			result.Updated = append(result.Updated, existing)
		}
	}
	return result, nil
}
