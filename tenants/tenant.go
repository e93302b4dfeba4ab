package tenants

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Tenant represents a single store account. All synced data is partitioned by tenant ID.
type Tenant struct {
	ID           string    `json:"id"`
	StoreName    string    `json:"storeName"`
	ShopDomain   string    `json:"shopDomain"`  // e.g. "my-store.myshopify.com"
	AccessToken  string    `json:"-"`           // Shopify Admin API token - never serialize
	PasswordHash string    `json:"-"`           // Dashboard login password hash - never serialize
	CreatedAt    time.Time `json:"createdAt"`
	LastSyncedAt time.Time `json:"lastSyncedAt"` // Zero until the first successful sync run
}

// New builds a tenant with a normalised shop domain and a hashed password.
func New(storeName, shopDomain, accessToken, password string) (*Tenant, error) {
	domain := NormaliseDomain(shopDomain)
	if domain == "" {
		return nil, fmt.Errorf("shop domain is required")
	}
	if strings.TrimSpace(storeName) == "" {
		storeName = domain
	}
	t := &Tenant{
		StoreName:   strings.TrimSpace(storeName),
		ShopDomain:  domain,
		AccessToken: strings.TrimSpace(accessToken),
		CreatedAt:   time.Now().UTC(),
	}
	if password != "" {
		if err := t.SetPassword(password); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NormaliseDomain lower-cases the domain and strips any scheme, path and port.
func NormaliseDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if idx := strings.IndexAny(d, "/?#"); idx != -1 {
		d = d[:idx]
	}
	if idx := strings.Index(d, ":"); idx != -1 {
		d = d[:idx]
	}
	return d
}

// SetPassword replaces the dashboard password.
func (t *Tenant) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	t.PasswordHash = hash
	return nil
}

// CheckPassword reports whether password matches. Tenants without a password cannot log in.
func (t *Tenant) CheckPassword(password string) bool {
	if t.PasswordHash == "" || password == "" {
		return false
	}
	return CheckPasswordHash(password, t.PasswordHash)
}

// Linked reports whether the tenant has credentials for the commerce API.
func (t *Tenant) Linked() bool {
	return t.AccessToken != ""
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
