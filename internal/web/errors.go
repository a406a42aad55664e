package web

// errors.go provides JSON response helpers for the API. Technical errors
// are logged server-side with the request ID; clients receive a sanitized
// message.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dealerops/invstage/internal/logging"
)

// writeError logs the error with request context and writes a JSON error
// response with a sanitized message.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", message,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`+"\n", sanitizeErrorMessage(message))
}

// writeJSON encodes v as JSON. Encoding errors are logged since headers
// may already be sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// sanitizeErrorMessage strips internal details (paths, connection strings)
// from messages before they reach a client.
func sanitizeErrorMessage(msg string) string {
	for _, marker := range []string{"postgres://", "postgresql://"} {
		if strings.Contains(msg, marker) {
			return "internal storage error"
		}
	}
	if strings.Contains(msg, "/") && strings.Contains(msg, "no such file") {
		return "file not found"
	}
	return msg
}
