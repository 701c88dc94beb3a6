package web

// errors.go provides unified error responses for the web layer.
//
// Every failure is logged with its technical detail and request id, and the
// client receives the mapped user message and support code:
//
//	{"error": "...", "action": "...", "details": "...", "code": "FILE005"}

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jlfwebstudio/tabela-node-backend/internal/core"
	"github.com/jlfwebstudio/tabela-node-backend/internal/logging"
)

// errFileTooLarge maps to FILE001.
var errFileTooLarge = errors.New("file too large")

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Action  string `json:"action,omitempty"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a request failure.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, errFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManyConversions):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	switch core.KindOf(err) {
	case core.KindMissingInput, core.KindDecodeExhausted, core.KindEmptyResult:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing JSON form.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeJSON(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Action:  msg.Action,
		Details: errorDetails(err, status),
		Code:    msg.Code,
	})
}

// errorDetails returns extra context that is safe to show to a client:
// the details attached to a conversion error, or the underlying cause of an
// internal failure so the frontend can display what went wrong.
func errorDetails(err error, status int) string {
	var convErr *core.Error
	if !errors.As(err, &convErr) {
		return ""
	}
	if convErr.Details != "" {
		return convErr.Details
	}
	if status >= http.StatusInternalServerError && convErr.Err != nil {
		return convErr.Err.Error()
	}
	return ""
}
