package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tracker/src/utils"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be a positive number")
	ErrInvalidTicker    = errors.New("invalid ticker")
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrNotHeld          = errors.New("ticker is not held")
	ErrTickerInUse      = errors.New("ticker is still referenced by positions or transactions")
	ErrNotFound         = errors.New("not found")
	ErrStore            = errors.New("store error")
)

func storeError(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// StatusCode maps service errors onto HTTP status codes. Both the API and the worker answer with it.
// Unknown tickers win over price failures, since a missing symbol has no price either.
func StatusCode(err error) int {
	var httpErr *utils.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTicker),
		errors.Is(err, ErrNotHeld),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTickerInUse):
		return http.StatusConflict
	case errors.Is(err, ErrPriceUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
