// Package api implements HTTP handlers for the rate report service.
package api

import (
	"encoding/json"
	"net/http"
)

const headerRunID = "X-Run-Id"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid run_id"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeHTML writes a rendered report.
func writeHTML(w http.ResponseWriter, status int, document string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(document))
}
