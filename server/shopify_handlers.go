package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/shopify"
	"github.com/rs/zerolog/log"
)

// ShopifyInstallResponse carries the consent URL for API clients
type ShopifyInstallResponse struct {
	URL string `json:"url"`
}

// ShopifyInstallHandler starts the app install flow for the caller's store (GET /api/shopify/install)
func (s *Server) ShopifyInstallHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.services.Installer.Enabled() {
			writeJSONError(w, "Shopify app credentials are not configured", http.StatusNotImplemented)
			return
		}
		tenant := TenantFromContext(r.Context())

		shop := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("shop")))
		if shop == "" {
			shop = tenant.ShopDomain
		}
		if !shopify.ValidShopDomain(shop) {
			writeJSONError(w, "Invalid shop domain", http.StatusBadRequest)
			return
		}
		if shop != tenant.ShopDomain {
			writeJSONError(w, "Shop does not belong to this account", http.StatusForbidden)
			return
		}

		state, err := s.services.Tokens.IssueState(tenant.ID, shop)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		authURL, err := s.services.Installer.AuthURL(shop, state)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if r.URL.Query().Get("redirect") == "true" {
			http.Redirect(w, r, authURL, http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, ShopifyInstallResponse{URL: authURL})
	}
}

// ShopifyCallbackHandler completes the install and stores the access token (GET /api/shopify/callback)
func (s *Server) ShopifyCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if errorParam := query.Get("error"); errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, query.Get("error_description")), http.StatusBadRequest)
			return
		}

		code := query.Get("code")
		state := query.Get("state")
		shop := strings.ToLower(query.Get("shop"))
		if code == "" || state == "" || shop == "" {
			http.Error(w, "Missing code, state or shop parameter", http.StatusBadRequest)
			return
		}

		if err := s.services.Installer.VerifyCallback(query); err != nil {
			if errors.Is(err, errors.ErrUnsupported) {
				http.Error(w, "Shopify app credentials are not configured", http.StatusNotImplemented)
				return
			}
			http.Error(w, "Invalid callback signature", http.StatusBadRequest)
			return
		}

		tenantID, stateShop, err := s.services.Tokens.ParseState(state)
		if err != nil || stateShop != shop {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		tenant, err := s.services.Tenants.Get(r.Context(), tenantID)
		if err != nil {
			http.Error(w, "Tenant not found", http.StatusNotFound)
			return
		}

		accessToken, err := s.services.Installer.Exchange(r.Context(), shop, code)
		if err != nil {
			log.Err(err).Str("tenant", tenant.ID).Str("shop", shop).Msg("Shopify token exchange failed")
			http.Error(w, "Token exchange failed", http.StatusBadGateway)
			return
		}

		if err := s.services.Tenants.SetAccessToken(r.Context(), tenant.ID, accessToken); err != nil {
			log.Err(err).Str("tenant", tenant.ID).Msg("Failed to store access token")
			http.Error(w, "Failed to store access token", http.StatusInternalServerError)
			return
		}
		log.Info().Str("tenant", tenant.ID).Str("shop", shop).Msg("Shopify store linked")

		redirectSuccess(w, r, RouteDashboard)
	}
}
