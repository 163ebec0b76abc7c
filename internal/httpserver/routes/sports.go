package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/mw"
)

func init() { Register("sports", registerSports) }

// Reads are open; mutations go through the same CIDR and Host guards as
// /reload plus a per-IP token bucket.
func registerSports(r chi.Router, d deps.Deps) {
	guard := []Middleware{
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.MutationBurst,
			RefillPerIPPerMin: d.MutationRefill,
			MaxEntries:        10_000,
			TrustProxy:        d.TrustProxy,
			Logger:            d.Logger,
		}),
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/icons", handlers.Icons())

		r.Route("/sports", func(r chi.Router) {
			r.Get("/", handlers.ListSports(d))
			r.Get("/visible", handlers.VisibleSports(d))
			r.Get("/{name}", handlers.GetSport(d))

			r.Group(func(r chi.Router) {
				r.Use(guard...)
				r.Post("/", handlers.AddSport(d))
				r.Put("/", handlers.ReplaceSports(d))
				r.Put("/{name}", handlers.EditSport(d))
				r.Delete("/{name}", handlers.DeleteSport(d))
				r.Post("/{name}/toggle", handlers.ToggleSport(d))
			})
		})
	})
}
