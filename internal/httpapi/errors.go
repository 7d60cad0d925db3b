package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/pickdb/internal/crud"
	"github.com/roach88/pickdb/internal/logging"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeValidation = "validation_failed"
	CodeNotFound   = "not_found"
	CodeBackend    = "backend_failure"
	CodeBadRequest = "bad_request"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError maps err to a status code, logs it and writes an ErrorResponse.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, CodeBackend
	if errors.Is(err, crud.ErrValidation) {
		status, code = http.StatusBadRequest, CodeValidation
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
	)
	writeError(w, r, status, code, err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func notFound(w http.ResponseWriter, r *http.Request, what string) {
	writeError(w, r, http.StatusNotFound, CodeNotFound, what+" not found")
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
