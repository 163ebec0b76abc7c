package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/huddle/internal/logger"
)

// quietPaths are polled by orchestrators and only logged at debug.
var quietPaths = map[string]bool{"/healthz": true, "/readyz": true}

type logFunc func(msg string, fields ...logger.Field)

func levelFor(log logger.Logger, status int, path string) logFunc {
	switch {
	case status >= http.StatusInternalServerError:
		return log.Error
	case status >= http.StatusBadRequest:
		return log.Warn
	case quietPaths[path]:
		return log.Debug
	}
	return log.Info
}

// Log writes one access line per request.
func Log(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			levelFor(log, status, r.URL.Path)("http_request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("user_agent", r.UserAgent()),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
