package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status     string    `json:"status"`
	Uptime     string    `json:"uptime"`
	Build      buildInfo `json:"build"`
	Backend    string    `json:"backend,omitempty"`
	InstanceID string    `json:"instance_id,omitempty"`
	Revision   uint64    `json:"revision"`
}

// Healthz is liveness only: it reports process facts and never touches storage.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:     "ok",
			Uptime:     now().Sub(d.StartTime).Truncate(time.Second).String(),
			Build:      build,
			Backend:    d.BackendName,
			InstanceID: d.InstanceID,
		}
		if d.Catalog != nil {
			resp.Revision = d.Catalog.Revision()
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}
