package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAPIKey admits requests whose X-API-Key (or bearer token) matches
// one of keys. With no keys configured every request is rejected.
func RequireAPIKey(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if key == "" || !validKey(keys, key) {
				writeError(w, http.StatusUnauthorized, "A valid X-API-Key header is required.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validKey(keys []string, candidate string) bool {
	ok := 0
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		ok |= subtle.ConstantTimeCompare([]byte(k), []byte(candidate))
	}
	return ok == 1
}
