package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/huddle/internal/catalog"
	"github.com/MrSnakeDoc/huddle/internal/logger"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}

	if status >= http.StatusInternalServerError {
		log.Warn("request failed", logger.Int("status", status), logger.Error(err))
	}
	writeJSON(w, status, resp)
}

// statusFor maps catalog errors onto HTTP status codes.
func statusFor(err error) int {
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrNotReady):
		return http.StatusServiceUnavailable
	case catalog.IsPersistence(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &catalog.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

// nameParam returns the {name} route parameter. chi routes on RawPath when
// the URL has one, and the parameter is still escaped only in that case.
func nameParam(r *http.Request) string {
	param := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return param
	}
	if name, err := url.PathUnescape(param); err == nil {
		return name
	}
	return param
}
