package httpapi

import (
	"net/http"
	"strings"
)

// requireJSON enforces a JSON content type on requests carrying a body.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/json") {
		return true
	}
	writeErr(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", "")
	return false
}
