package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finsight/internal/auth"
	"finsight/internal/core"
	applog "finsight/internal/log"
)

const maxBodyBytes = 1 << 20

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, envelope{Success: false, Message: message, Error: detail})
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut, http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	default:
		return applog.OpRead
	}
}

// writeError maps err onto a status code. Unexpected errors are logged and
// answered with a generic message only.
func writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeFailure(w, http.StatusBadRequest, ve.Error(), "")
	case errors.Is(err, core.ErrValidation):
		writeFailure(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, core.ErrUnauthorized):
		writeFailure(w, http.StatusUnauthorized, unauthorizedMessage(err), "")
	case errors.Is(err, core.ErrNotFound):
		writeFailure(w, http.StatusNotFound, notFoundMessage(r), "")
	case errors.Is(err, core.ErrConflict):
		writeFailure(w, http.StatusConflict, conflictMessage(r), "")
	default:
		user, _ := auth.UserID(r.Context())
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), message, err, operationFor(r.Method),
				applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "").WithUserID(user))
		writeFailure(w, http.StatusInternalServerError, message, "Internal server error")
	}
}

func unauthorizedMessage(err error) string {
	if strings.HasPrefix(err.Error(), "invalid email or password") {
		return "Invalid email or password"
	}
	return "Authentication required"
}

func notFoundMessage(r *http.Request) string {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/expenses"):
		return "Expense not found"
	case strings.HasPrefix(r.URL.Path, "/api/budgets"):
		return "Budget not found"
	case strings.HasPrefix(r.URL.Path, "/api/auth"):
		return "User not found"
	}
	return "Resource not found"
}

func conflictMessage(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/api/auth") {
		return "User with this email already exists"
	}
	return "Resource already exists"
}

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed bodies are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.NewValidationError("", "request body is required")
		}
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		return core.NewValidationError("", fmt.Sprintf("malformed JSON body: %v", err))
	}
	return nil
}
