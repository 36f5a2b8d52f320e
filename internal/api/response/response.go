// Package response writes the JSON bodies of the HTTP API. Success bodies
// are bare objects; failures use the {"error": {...}} envelope.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Error codes carried in the envelope.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeTaskNotFound      = "TASK_NOT_FOUND"
	CodeCapacityExhausted = "CAPACITY_EXHAUSTED"
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	CodeNotFound          = "NOT_FOUND"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	CodeNotImplemented    = "NOT_IMPLEMENTED"
	CodeInternal          = "INTERNAL_ERROR"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, data)
}

func Accepted(w http.ResponseWriter, data any) {
	write(w, http.StatusAccepted, data)
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	write(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// TooManyRequests writes a 429 with a Retry-After hint rounded up to whole seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration, code, message string) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	Error(w, http.StatusTooManyRequests, code, message, nil)
}

// Internal writes the generic 500 body. Causes stay in the logs.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred", nil)
}

// write encodes before touching the header so an unencodable value still
// yields a well-formed 500.
func write(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":{"code":"` + CodeInternal + `","message":"An unexpected error occurred"}}`)
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
