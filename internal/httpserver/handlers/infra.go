package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
)

type componentStatus struct {
	OK            bool   `json:"ok"`
	SportsLoaded  *int   `json:"sports_loaded,omitempty"`
	SportsVisible *int   `json:"sports_visible,omitempty"`
	Revision      uint64 `json:"revision,omitempty"`
	Backend       string `json:"backend,omitempty"`
	LastRefresh   string `json:"last_refresh,omitempty"`
	Failures      uint64 `json:"failures,omitempty"`
	Error         string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the catalog, its storage and the refresher.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.Catalog.Snapshot()
		loaded := len(snap.Sports)
		visible := len(d.Catalog.VisibleSports())

		components := map[string]componentStatus{
			"catalog": {
				OK:            d.Catalog.Ready(),
				SportsLoaded:  &loaded,
				SportsVisible: &visible,
				Revision:      snap.Revision,
			},
			"storage": checkStorage(r.Context(), d),
		}
		if d.Refresher != nil {
			components["refresher"] = refresherStatus(d)
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if c, ok := components["catalog"]; ok && !c.OK {
		return "critical" // nothing loaded, nothing to serve
	}
	if s, ok := components["storage"]; ok && !s.OK {
		return "degraded" // serving last loaded state, mutations fail
	}
	if rf, ok := components["refresher"]; ok && !rf.OK {
		return "degraded" // possibly stale
	}
	return "optimal"
}

func checkStorage(parent context.Context, d deps.Deps) componentStatus {
	status := componentStatus{Backend: d.BackendName}
	if d.Backend == nil {
		status.Error = "backend not initialized"
		return status
	}

	ctx, cancel := context.WithTimeout(parent, time.Second)
	defer cancel()

	if err := d.Backend.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.OK = true
	return status
}

func refresherStatus(d deps.Deps) componentStatus {
	st := d.Refresher.Status()
	status := componentStatus{
		OK:          st.LastError == "",
		Failures:    st.Failures,
		Error:       st.LastError,
		LastRefresh: "never",
	}
	if !st.LastSuccess.IsZero() {
		status.LastRefresh = st.LastSuccess.Format("2006-01-02 15:04:05")
	}
	return status
}
