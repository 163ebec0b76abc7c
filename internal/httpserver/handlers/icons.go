package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/huddle/internal/domain"
)

type iconsResponse struct {
	Default string   `json:"default"`
	Icons   []string `json:"icons"`
}

// Icons lists the icon identifiers an admin may assign.
func Icons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, iconsResponse{Default: domain.DefaultIcon, Icons: domain.Icons})
	}
}
