package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck-api/internal/redact"
)

// FieldError is one entry of a validation failure list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Pagination is the paging block that accompanies list responses.
type Pagination struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// Response is the envelope shared by every API response.
type Response struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Data       interface{}  `json:"data,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	TraceID    string       `json:"traceId,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and body.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithData writes a success envelope carrying the given payload.
func RespondWithData(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	RespondWithJSON(w, r, status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithList writes a success envelope carrying one page of results and
// its pagination block.
func RespondWithList(w http.ResponseWriter, r *http.Request, data interface{}, p Pagination) {
	RespondWithJSON(w, r, http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Pagination: &p,
	})
}

// RespondWithError writes a failure envelope with the given status and
// message, tagged with the request's trace ID when available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, Response{
		Success: false,
		Message: message,
		TraceID: traceID,
	})
}

// RespondWithFieldErrors writes a 400 failure envelope carrying per-field
// validation messages.
func RespondWithFieldErrors(w http.ResponseWriter, r *http.Request, message string, fields []FieldError) {
	RespondWithJSON(w, r, http.StatusBadRequest, Response{
		Success: false,
		Message: message,
		Errors:  fields,
		TraceID: GetTraceID(r.Context()),
	})
}

// RespondWithErrorAndLog writes a failure envelope with a sanitized message
// and logs the underlying error with full (redacted) detail. 5xx responses
// log at ERROR level, everything else at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
) {
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, Response{
		Success: false,
		Message: userMessage,
		TraceID: traceID,
	})
}
