package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/huddle/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
}

var registry []group

// Register adds a named route group. Each routes file calls it from init.
func Register(name string, reg Registrar) {
	registry = append(registry, group{name: name, reg: reg})
}

// RegisterAll mounts every group on r, in registration order.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range registry {
		g.reg(r, d)
		if d.Logger != nil {
			d.Logger.Debug("routes registered", logger.String("group", g.name))
		}
	}
}
