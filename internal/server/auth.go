package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader carries the shared key on authenticated requests.
const APIKeyHeader = "X-API-Key"

// apiKeyMiddleware rejects requests that do not carry the configured shared
// key. An empty configured key disables authentication. /healthz is always
// open so load balancers can probe without credentials.
func apiKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" || r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			presented := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if presented == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing API key"})
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid API key"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
