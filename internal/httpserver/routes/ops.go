package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/mw"
)

func init() { Register("ops", registerOps) }

// /healthz stays open for orchestrator liveness checks. Readiness, infra and
// reload are restricted to the allowed CIDRs, reload also to allowed hosts.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

		r.Get("/readyz", handlers.Readyz(d))
		r.Get("/infra", handlers.Infra(d))
		r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
	})
}
