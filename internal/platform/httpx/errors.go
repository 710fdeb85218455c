// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors the domain packages wrap so the transport can map them.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
)

var problems = []struct {
	err    error
	status int
	title  string
}{
	{ErrNotFound, http.StatusNotFound, "Not Found"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{ErrConflict, http.StatusConflict, "Conflict"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
}

// RespondError maps domain errors to HTTP responses using RFC7807. Detail
// carries the error text except for internal errors.
func RespondError(w http.ResponseWriter, err error) {
	for _, p := range problems {
		if errors.Is(err, p.err) {
			Problem(w, p.status, p.title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

// Status returns the HTTP status RespondError would use for err.
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, p := range problems {
		if errors.Is(err, p.err) {
			return p.status
		}
	}
	return http.StatusInternalServerError
}
