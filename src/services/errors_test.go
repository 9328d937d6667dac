package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"tracker/src/services"
	"tracker/src/utils"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{utils.BadRequest("bad"), http.StatusBadRequest},
		{utils.ServiceUnavailable("down"), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: got 0", services.ErrInvalidQuantity), http.StatusBadRequest},
		{fmt.Errorf("%w: ZZZ", services.ErrInvalidTicker), http.StatusNotFound},
		{fmt.Errorf("%w: AAPL", services.ErrNotHeld), http.StatusNotFound},
		{fmt.Errorf("%w: ticker X", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: AAPL", services.ErrTickerInUse), http.StatusConflict},
		{fmt.Errorf("%w: AAPL", services.ErrPriceUnavailable), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w: ZZZ", services.ErrPriceUnavailable, services.ErrInvalidTicker), http.StatusNotFound},
		{fmt.Errorf("quote: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: %w", services.ErrStore, errors.New("connection lost")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, services.StatusCode(tt.err), tt.err.Error())
	}
}
