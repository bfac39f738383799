package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Envelope wraps every response body
type Envelope map[string]any

// APIError is the error body of a failed request
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// JSON writes body inside an ok/error envelope
func JSON(w http.ResponseWriter, status int, body any) error {
	var payload any
	switch body.(type) {
	case *APIError, APIError:
		payload = Envelope{"status": "error", "error": body}
	default:
		payload = Envelope{"status": "ok", "data": body}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

// Error writes an APIError carrying the request id
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string) error {
	w.Header().Set("Cache-Control", "no-store")
	return JSON(w, status, APIError{
		Code:    code,
		Message: message,
		TraceID: middleware.GetReqID(r.Context()),
	})
}
