package shopify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/store-insights/internal/errors"
)

// APIError is a non-2xx response from the Admin API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shopify api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("shopify api returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return errors.ErrRemoteAPI
}

// errorBody captures the "errors" field, which is either a string or an object of field errors.
type errorBody struct {
	Errors json.RawMessage `json:"errors"`
}

func (b *errorBody) message() string {
	if b == nil || len(b.Errors) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Errors, &s); err == nil {
		return s
	}
	var fields map[string][]string
	if err := json.Unmarshal(b.Errors, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for field, msgs := range fields {
			parts = append(parts, field+": "+strings.Join(msgs, ", "))
		}
		return strings.Join(parts, "; ")
	}
	return string(b.Errors)
}
