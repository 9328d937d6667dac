package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tracker/src/services"
	"tracker/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleErrors(t *testing.T) {
	h := NewHandler(nil)

	tests := []struct {
		err     error
		status  int
		message string
	}{
		{utils.BadRequest("since must be a date"), http.StatusBadRequest, "since must be a date"},
		{fmt.Errorf("%w: got 0", services.ErrInvalidQuantity), http.StatusBadRequest, ""},
		{fmt.Errorf("%w: ticker X", services.ErrNotFound), http.StatusNotFound, ""},
		{fmt.Errorf("%w: AAPL", services.ErrNotHeld), http.StatusNotFound, ""},
		{fmt.Errorf("%w: AAPL", services.ErrTickerInUse), http.StatusConflict, ""},
		{fmt.Errorf("%w: AAPL", services.ErrPriceUnavailable), http.StatusUnprocessableEntity, ""},
		{fmt.Errorf("history: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
		{errors.New("boom"), http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		recorder := httptest.NewRecorder()
		h.HandleErrors(recorder, tt.err)

		assert.Equal(t, tt.status, recorder.Code, tt.err.Error())
		assert.Equal(t, services.StatusCode(tt.err), recorder.Code, tt.err.Error())

		var body map[string]string
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		if tt.message != "" {
			assert.Equal(t, tt.message, body["error"])
		} else {
			assert.Equal(t, tt.err.Error(), body["error"])
		}
	}
}
