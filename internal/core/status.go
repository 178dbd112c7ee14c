package core

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a service error to the status code the API returns.
// Unknown errors stay 500 so storage internals never leak to clients.
func HTTPStatus(err error) int {
	var (
		nf *NotFoundError
		ve *ValidationError
		is *InsufficientStockError
	)

	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ve),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrNoPaidItems),
		errors.Is(err, ErrNegativeTotal):
		return http.StatusBadRequest
	case errors.As(err, &is),
		errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
