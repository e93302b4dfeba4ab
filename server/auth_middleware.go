package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/tenants"
	"github.com/jrsteele09/store-insights/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyTenant stores the authenticated *tenants.Tenant
	ContextKeyTenant ContextKey = "tenant"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireSessionAuth is middleware for HTML routes that validates the session cookie
// Used for server-rendered UI routes like /dashboard
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(loggedInSessionID)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
				return
			}

			tenant, claims, err := s.authenticate(r.Context(), cookie.Value)
			if err != nil {
				s.ClearLoginSessionCookie(w, r)
				redirectWithError(w, r, RouteLogin, "Session expired, please sign in again")
				return
			}

			next(w, r.WithContext(withTenant(r.Context(), tenant, claims)))
		}
	}
}

// RequireAuth is middleware that validates a Bearer session token
// Used for API routes; the tenant comes from the token subject and must still exist
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, "Unauthorized: missing bearer token", http.StatusUnauthorized)
				return
			}

			tenant, claims, err := s.authenticate(r.Context(), raw)
			if err != nil {
				if errors.Is(err, errors.ErrTenantNotFound) {
					writeJSONError(w, "Invalid Tenant", http.StatusUnauthorized)
					return
				}
				writeJSONError(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			next(w, r.WithContext(withTenant(r.Context(), tenant, claims)))
		}
	}
}

func (s *Server) authenticate(ctx context.Context, raw string) (*tenants.Tenant, *token.Claims, error) {
	claims, err := s.services.Tokens.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	tenant, err := s.services.Tenants.Get(ctx, claims.TenantID())
	if err != nil {
		if !errors.Is(err, errors.ErrTenantNotFound) {
			log.Err(err).Str("tenant", claims.TenantID()).Msg("Tenant lookup failed")
		}
		return nil, nil, err
	}
	return tenant, claims, nil
}

func withTenant(ctx context.Context, tenant *tenants.Tenant, claims *token.Claims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyTenant, tenant)
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// TenantFromContext returns the tenant set by RequireAuth or RequireSessionAuth.
func TenantFromContext(ctx context.Context) *tenants.Tenant {
	tenant, _ := ctx.Value(ContextKeyTenant).(*tenants.Tenant)
	return tenant
}
