package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// authorized checks the admin token, accepted either as a bearer header or a
// "token" query parameter (the scheduler trigger uses the latter). An empty
// configured token disables the check outside production.
func authorized(r *http.Request, adminToken string) bool {
	if adminToken == "" {
		return true
	}

	presented := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
		presented = auth[7:]
	}

	return subtle.ConstantTimeCompare([]byte(presented), []byte(adminToken)) == 1
}
