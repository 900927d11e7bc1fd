package httpapi

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
)

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[len("Bearer "):]), true
}

// authTokenFromEnv returns a middleware that enforces Authorization: Bearer
// <token> when SESSION_TOKEN is set. Health and metrics stay open.
func authTokenFromEnv() func(http.Handler) http.Handler {
	token := strings.TrimSpace(os.Getenv("SESSION_TOKEN"))
	if token == "" {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}
			got, ok := parseBearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
