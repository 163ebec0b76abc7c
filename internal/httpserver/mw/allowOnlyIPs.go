package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/huddle/internal/logger"
	"github.com/MrSnakeDoc/huddle/internal/utils"
)

// AllowOnlyCIDRS lets through clients whose IP is in allowed. An empty list
// is a passthrough. Invalid entries are logged and ignored; if none are valid
// every request is denied.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	log = log.With(logger.String("middleware", "allow_cidrs"))

	m, err := utils.ParseIPMatcher(allowed)
	if err != nil {
		log.Warn("ignoring allow-list entries", logger.Error(err))
	}
	if m.IsEmpty() && err == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("client ip rejected",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				deny(w, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
