package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/asset-scout/internal/db"
	"github.com/jonathan/asset-scout/internal/enrich"
	"github.com/jonathan/asset-scout/internal/fetch"
	"github.com/jonathan/asset-scout/internal/resolve"
	"github.com/jonathan/asset-scout/internal/scan"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnknownLocation indicates a location ID that is not configured
type ErrUnknownLocation struct {
	LocationID string
}

func (e *ErrUnknownLocation) Error() string {
	return fmt.Sprintf("unknown location: %s", e.LocationID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var location *ErrUnknownLocation
	var fetchErr *fetch.Error

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), enrich.IsInputError(err):
		return http.StatusBadRequest
	case errors.As(err, &location), errors.Is(err, db.ErrNotFound), errors.Is(err, resolve.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scan.ErrAlreadyActive):
		return http.StatusConflict
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
