// Package httpserver exposes the sports catalog over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/huddle/internal/config"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/mw"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/routes"
	"github.com/MrSnakeDoc/huddle/internal/logger"
)

// requestTimeout bounds a request including its storage round-trip.
const requestTimeout = 5 * time.Second

type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// NewRouter mounts the global middlewares and every registered route group.
func NewRouter(loggerClient logger.Logger, d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.GetHead,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
		mw.Log(loggerClient),
	)

	routes.RegisterAll(r, d)
	return r
}

func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.ListenPort,
			Handler:           NewRouter(loggerClient, d),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      2 * requestTimeout,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    64 << 10,
		},
		logger:  loggerClient.With(logger.String("component", "http")),
		started: d.StartTime,
	}
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. A graceful shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", logger.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down", logger.Duration("uptime", time.Since(s.started)))
	return s.http.Shutdown(ctx)
}
