package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/domain/search"
	"github.com/helixml/textclassifier/infrastructure/api/jsonapi"
)

// APIError is an error with an HTTP status code.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var apiErr *APIError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.code
	case errors.Is(err, category.ErrInvalidInput),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest
	case errors.Is(err, category.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, category.ErrInvariantViolation):
		return http.StatusConflict
	case errors.Is(err, search.ErrEmbeddingFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON:API error document. Server errors are
// logged and their detail is withheld from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	status := StatusFor(err)
	detail := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		if status == http.StatusInternalServerError {
			detail = "internal server error"
		}
	}

	doc := jsonapi.NewErrorResponse(jsonapi.NewError(strconv.Itoa(status), http.StatusText(status), detail))
	WriteJSON(w, status, doc)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
