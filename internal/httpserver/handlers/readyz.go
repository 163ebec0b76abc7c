package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Catalog bool   `json:"catalog"`
	Storage bool   `json:"storage"`
	Error   string `json:"error,omitempty"`
}

// Readyz reports ready once the catalog has loaded and storage answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storage := checkStorage(r.Context(), d)
		resp := readyzResponse{
			Catalog: d.Catalog.Ready(),
			Storage: storage.OK,
			Error:   storage.Error,
		}
		resp.Ready = resp.Catalog && resp.Storage

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, status, resp)
	}
}
