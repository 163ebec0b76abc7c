package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/huddle/internal/logger"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, req *http.Request) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"huddle.example.com", "*.sports.test", "LocalHost:8080"}, logger.NewNop())(noContent)

	tests := map[string]int{
		"huddle.example.com":      http.StatusNoContent,
		"HUDDLE.example.com:9000": http.StatusNoContent,
		"api.sports.test":         http.StatusNoContent,
		"a.b.sports.test":         http.StatusNoContent,
		"localhost":               http.StatusNoContent,
		"sports.test":             http.StatusForbidden,
		"evilsports.test":         http.StatusForbidden,
		"example.com":             http.StatusForbidden,
		"":                        http.StatusForbidden,
	}
	for host, want := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/sports", nil)
		req.Host = host
		assert.Equal(t, want, serve(h, req), "host %q", host)
	}
}

func TestEnforceHost_EmptyIsPassthrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "anything.invalid"
	assert.Equal(t, http.StatusNoContent, serve(EnforceHost(nil, logger.NewNop())(noContent), req))
}

func TestAllowOnlyCIDRS(t *testing.T) {
	request := func(remote string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		req.RemoteAddr = remote
		return req
	}

	t.Run("passthrough", func(t *testing.T) {
		h := AllowOnlyCIDRS(nil, false, logger.NewNop())(noContent)
		assert.Equal(t, http.StatusNoContent, serve(h, request("203.0.113.9:1234")))
	})

	t.Run("allow list", func(t *testing.T) {
		h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "::1", "bogus"}, false, logger.NewNop())(noContent)
		assert.Equal(t, http.StatusNoContent, serve(h, request("10.1.2.3:5000")))
		assert.Equal(t, http.StatusNoContent, serve(h, request("[::1]:5000")))
		assert.Equal(t, http.StatusForbidden, serve(h, request("192.0.2.1:5000")))
	})

	t.Run("trusted proxy header", func(t *testing.T) {
		h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, true, logger.NewNop())(noContent)
		req := request("192.0.2.1:5000")
		req.Header.Set("X-Forwarded-For", "10.9.9.9, 192.0.2.1")
		assert.Equal(t, http.StatusNoContent, serve(h, req))
	})

	t.Run("all entries invalid denies everyone", func(t *testing.T) {
		h := AllowOnlyCIDRS([]string{"nope", "10.0.0.0/99"}, false, logger.NewNop())(noContent)
		assert.Equal(t, http.StatusForbidden, serve(h, request("10.1.2.3:5000")))
	})
}

func TestLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/api/sports", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("[]")) })
	mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	h := Log(log)(mux)

	for _, path := range []string{"/healthz", "/api/sports", "/missing", "/boom"} {
		serve(h, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 4)

	want := []struct {
		level  zapcore.Level
		status int64
	}{
		{zapcore.DebugLevel, 200},
		{zapcore.InfoLevel, 200},
		{zapcore.WarnLevel, 404},
		{zapcore.ErrorLevel, 502},
	}
	for i, w := range want {
		fields := entries[i].ContextMap()
		assert.Equal(t, w.level, entries[i].Level, "entry %d", i)
		assert.Equal(t, w.status, fields["status"], "entry %d", i)
		assert.Equal(t, "http_request", entries[i].Message)
	}
	assert.Equal(t, int64(2), entries[1].ContextMap()["bytes"])
}
