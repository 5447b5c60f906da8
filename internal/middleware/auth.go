package middleware

import (
	"crypto/subtle"
	"net/http"

	"shopify-variant-reset/pkg/apierror"
	"shopify-variant-reset/pkg/response"
)

// AuthConfig holds dependencies for the auth middleware.
type AuthConfig struct {
	// APIKey protects the trigger endpoints. Empty disables the check
	// (development only).
	APIKey string
}

// NewAuthMiddleware creates an API-key middleware with injected config.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
				response.Error(w, apierror.Unauthorized("invalid API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
