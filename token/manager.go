package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	ierrors "github.com/jrsteele09/store-insights/internal/errors"
	"github.com/pkg/errors"
)

const (
	SessionAudience = "store-insights"
	InstallAudience = "shopify-install"

	DefaultSessionTTL = 24 * time.Hour
	InstallStateTTL   = 10 * time.Minute
)

// Session is a signed dashboard/API token for one tenant.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims are the verified contents of a session or install-state token.
type Claims struct {
	jwt.RegisteredClaims
	Shop string `json:"shop,omitempty"` // Only set on install-state tokens
}

// TenantID is the token subject.
func (c *Claims) TenantID() string {
	return c.Subject
}

type Manager struct {
	signer       Signer
	issuer       string
	sessionTTL   time.Duration
	revokedCache RevokedTokenCache
	nowFunc      func() time.Time
}

type ManagerOption func(*Manager)

func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.sessionTTL = ttl
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		revokedCache: NewInMemoryRevokedTokenCache(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.sessionTTL <= 0 {
		m.sessionTTL = DefaultSessionTTL
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Issue creates a session token whose subject is the tenant.
func (c *Manager) Issue(tenantID string) (*Session, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, errors.New("tenant id is required")
	}
	now := c.nowFunc()
	expiresAt := now.Add(c.sessionTTL)
	signed, err := c.sign(Claims{RegisteredClaims: c.registered(tenantID, SessionAudience, now, expiresAt)})
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

// Parse verifies a session token and returns its claims.
func (c *Manager) Parse(rawToken string) (*Claims, error) {
	claims, err := c.parse(rawToken, SessionAudience)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" && c.revokedCache.IsRevoked(claims.ID) {
		return nil, ierrors.ErrInvalidToken
	}
	return claims, nil
}

// Revoke invalidates a session token until its natural expiry.
func (c *Manager) Revoke(rawToken string) error {
	claims, err := c.parse(rawToken, SessionAudience)
	if err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return errors.New("token missing jti or exp claim")
	}
	c.revokedCache.Cleanup()
	return c.revokedCache.Add(claims.ID, claims.ExpiresAt.Time)
}

// IssueState creates the short-lived state parameter for a Shopify app install.
func (c *Manager) IssueState(tenantID, shop string) (string, error) {
	now := c.nowFunc()
	return c.sign(Claims{
		RegisteredClaims: c.registered(tenantID, InstallAudience, now, now.Add(InstallStateTTL)),
		Shop:             shop,
	})
}

// ParseState verifies an install state and returns the tenant and shop it was issued for.
func (c *Manager) ParseState(state string) (tenantID, shop string, err error) {
	claims, err := c.parse(state, InstallAudience)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, claims.Shop, nil
}

func (c *Manager) registered(subject, audience string, now, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.New().String(),
	}
}

func (c *Manager) sign(claims Claims) (string, error) {
	return c.signer.Sign(claims)
}

func (c *Manager) parse(rawToken, audience string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ierrors.ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, c.signer.GetVerificationKey, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ierrors.ErrTokenExpired
		}
		return nil, ierrors.Wrapf(ierrors.ErrInvalidToken, "%v", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ierrors.ErrInvalidToken
	}
	return claims, nil
}
