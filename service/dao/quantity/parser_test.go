package quantity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expected    time.Duration
		shouldError bool
	}{
		{
			description: "nanoseconds",
			input:       "1500ns",
			expected:    1500 * time.Nanosecond,
		},
		{
			description: "bare number is nanoseconds",
			input:       "40",
			expected:    40 * time.Nanosecond,
		},
		{
			description: "fractional microseconds",
			input:       "2.5us",
			expected:    2500 * time.Nanosecond,
		},
		{
			description: "space before unit",
			input:       "10 ms",
			expected:    10 * time.Millisecond,
		},
		{
			description: "seconds",
			input:       "1s",
			expected:    time.Second,
		},
		{
			description: "surrounding whitespace",
			input:       " 3us ",
			expected:    3 * time.Microsecond,
		},
		{
			description: "unknown unit",
			input:       "5h",
			shouldError: true,
		},
		{
			description: "missing number",
			input:       "ns",
			shouldError: true,
		},
		{
			description: "trailing garbage",
			input:       "5us 3",
			shouldError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			result, err := Duration(tc.input)
			if tc.shouldError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestLength(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expected    float64
		shouldError bool
	}{
		{
			description: "kilometres",
			input:       "25km",
			expected:    25,
		},
		{
			description: "fractional kilometres",
			input:       "12.5 km",
			expected:    12.5,
		},
		{
			description: "metres convert to kilometres",
			input:       "800m",
			expected:    0.8,
		},
		{
			description: "bare number is kilometres",
			input:       "30.5",
			expected:    30.5,
		},
		{
			description: "unknown unit",
			input:       "25mi",
			shouldError: true,
		},
		{
			description: "negative rejected",
			input:       "-5km",
			shouldError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			result, err := Length(tc.input)
			if tc.shouldError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}
