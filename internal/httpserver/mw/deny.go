package mw

import (
	"encoding/json"
	"net/http"
)

// deny answers with the same {"error": ...} body the API handlers use.
func deny(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}
