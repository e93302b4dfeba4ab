package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors to a status code and a client-safe message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, errors.ErrInvalidToken), errors.Is(err, errors.ErrTokenExpired), errors.Is(err, errors.ErrTenantNotFound):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, errors.ErrInvalidDate), errors.Is(err, errors.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, errors.ErrStoreNotLinked):
		status, message = http.StatusConflict, "store is not linked to Shopify"
	case errors.Is(err, errors.ErrSyncInProgress):
		status, message = http.StatusConflict, "sync already in progress"
	case errors.Is(err, errors.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, errors.ErrUnsupported):
		status, message = http.StatusNotImplemented, "not configured"
	case errors.Is(err, errors.ErrRemoteAPI):
		status, message = http.StatusBadGateway, "store api error"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSONError(w, message, status)
}
