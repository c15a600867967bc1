package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", "2025-03-01T10:30:00Z", time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2025-03-01T10:30:00-03:00", time.Date(2025, 3, 1, 13, 30, 0, 0, time.UTC)},
		{"dotnet fraction", "2025-03-01T10:30:00.1234567", time.Date(2025, 3, 1, 10, 30, 0, 123456700, time.UTC)},
		{"no zone", "2025-03-01T10:30:00", time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"space separated", "2025-03-01 10:30:00", time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"date only", "2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "yesterday", "01/03/2025"} {
		_, err := ParseTimestamp(input)
		assert.Error(t, err, input)
	}
}

func TestFormatDisplayTime(t *testing.T) {
	assert.Empty(t, FormatDisplayTime(time.Time{}))
	assert.NotEmpty(t, FormatDisplayTime(time.Now()))
}
