package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName    string
	Error      string
	ShopDomain string // Preserve the shop domain on error
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		panic("Failed to parse login template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Already signed in: straight to the dashboard
		if cookie, err := r.Cookie(loggedInSessionID); err == nil && cookie.Value != "" {
			if _, err := s.services.Tokens.Parse(cookie.Value); err == nil {
				redirectSuccess(w, r, RouteDashboard)
				return
			}
		}

		data := LoginPageData{
			AppName:    s.config.GetAppName(),
			Error:      r.URL.Query().Get("error"),
			ShopDomain: r.URL.Query().Get("shop"),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

// LoginSubmissionHandler processes the login form submission (POST /auth/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		shopDomain := r.FormValue("shopDomain")
		password := r.FormValue("password")
		if shopDomain == "" || password == "" {
			s.renderLoginError(w, r, "Shop domain and password are required", shopDomain)
			return
		}

		tenant, resp, err := s.login(r.Context(), shopDomain, password)
		if err != nil {
			if !errors.Is(err, errors.ErrInvalidCredentials) {
				log.Err(err).Msg("Login failed")
			}
			s.renderLoginError(w, r, "Invalid shop domain or password", shopDomain)
			return
		}

		log.Info().Str("tenant", tenant.ID).Msg("Dashboard login")
		s.SetLoginSessionCookie(w, resp.Token, r, resp.ExpiresAt)
		redirectSuccess(w, r, RouteDashboard)
	}
}

// LogoutHandler revokes the session token and clears the cookie (GET /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(loggedInSessionID); err == nil && cookie.Value != "" {
			if err := s.services.Tokens.Revoke(cookie.Value); err != nil && !isTokenError(err) {
				log.Err(err).Msg("Logout: failed to revoke session")
			}
		}
		s.ClearLoginSessionCookie(w, r)
		redirectSuccess(w, r, RouteLogin)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, shopDomain string) {
	redirectURL := RouteLogin + "?error=" + url.QueryEscape(errorMsg)
	if shopDomain != "" {
		redirectURL += "&shop=" + url.QueryEscape(shopDomain)
	}
	redirectSuccess(w, r, redirectURL)
}

func isTokenError(err error) bool {
	return errors.Is(err, errors.ErrInvalidToken) || errors.Is(err, errors.ErrTokenExpired)
}
