// Package repository binds the remote admissions API to typed Go calls.
// Repositories talk through a gateway.Client; the session-bound ones get
// bearer injection and the session-expiry redirect.  Sentinel values here
// let the flows tell remote outcomes apart without looking at status codes.
package repository

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iliyamo/admission-portal/internal/gateway"
)

// ErrNotFound is returned when the remote service answers 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the remote service answers 403, e.g. an
// update to an application that has already been submitted.
var ErrForbidden = errors.New("forbidden")

// classify tags 404/403 API errors with the sentinels above while keeping
// the underlying *gateway.APIError reachable through errors.As.
func classify(err error) error {
	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return err
}
