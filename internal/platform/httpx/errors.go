// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/clubhouse/clubhouse/internal/shared"
)

// ErrorPage is the view model of the generic error page.
type ErrorPage struct {
	Status  int
	Message string
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorPage builds the error page model. Internal details never reach the page.
func NewErrorPage(err error) ErrorPage {
	status := StatusFor(err)
	return ErrorPage{Status: status, Message: http.StatusText(status)}
}
