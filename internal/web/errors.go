package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// APIError is the JSON error body.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// requestError marks a malformed request (missing form field, bad multipart body).
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

// errorFor maps loader and request errors to an APIError.
func errorFor(err error) *APIError {
	var apiErr *APIError
	var reqErr *requestError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, dataset.ErrFileTooLarge), errors.As(err, &mbe):
		return &APIError{StatusCode: http.StatusRequestEntityTooLarge, ErrorCode: "FILE_TOO_LARGE", Message: err.Error()}
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return &APIError{StatusCode: http.StatusUnsupportedMediaType, ErrorCode: "UNSUPPORTED_FORMAT", Message: err.Error()}
	case errors.Is(err, dataset.ErrParse):
		return &APIError{StatusCode: http.StatusUnprocessableEntity, ErrorCode: "PARSE_ERROR", Message: err.Error()}
	case errors.As(err, &reqErr):
		return &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "INVALID_REQUEST", Message: err.Error()}
	}
	return &APIError{StatusCode: http.StatusInternalServerError, ErrorCode: "INTERNAL_ERROR", Message: "internal error"}
}
