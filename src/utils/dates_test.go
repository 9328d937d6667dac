package utils_test

import (
	"testing"
	"time"

	"tracker/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateToDay(t *testing.T) {
	newYork := time.FixedZone("America/New_York", -5*60*60)

	tests := []struct {
		input    time.Time
		expected time.Time
	}{
		{time.Date(2024, 1, 2, 15, 4, 5, 6, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		// 21:00 local is already the next day in UTC, the local calendar day wins
		{time.Date(2024, 1, 2, 21, 0, 0, 0, newYork), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, utils.TruncateToDay(tt.input))
	}
}

func TestEndOfDay(t *testing.T) {
	end := utils.EndOfDay(time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 2, 23, 59, 59, 999999999, time.UTC), end)
	assert.True(t, end.Before(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		hasError bool
	}{
		{"2024-01-02 15:04:05", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC), false},
		{" 2024-01-02 ", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-02T10:00:00-05:00", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), false},
		{"01/02/2024", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		result, err := utils.ParseTimestamp(tt.input)
		if tt.hasError {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.True(t, tt.expected.Equal(result), tt.input)
		assert.Equal(t, time.UTC, result.Location())
	}
}
