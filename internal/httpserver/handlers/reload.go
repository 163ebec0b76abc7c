package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/huddle/internal/logger"
)

type reloadResponse struct {
	Status   string `json:"status"`
	Revision uint64 `json:"revision"`
}

// Reload queues a storage re-read. The trigger holds one pending request;
// a second one while it is queued gets 429.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.Logger.With(logger.String("remote_ip", r.RemoteAddr))
		rev := d.Catalog.Revision()

		select {
		case d.ReloadTrigger <- struct{}{}:
			log.Info("reload queued", logger.Uint64("revision", rev))
			writeJSON(w, http.StatusAccepted, reloadResponse{Status: "queued", Revision: rev})
		default:
			log.Warn("reload already pending")
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Status: "pending", Revision: rev})
		}
	}
}
