package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	assert.NoError(t, err)
	return ts
}

func TestCalendarDaysBetween(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"same instant", "2024-01-01T10:00:00Z", "2024-01-01T10:00:00Z", 1},
		{"same day different hours", "2024-01-01T00:05:00Z", "2024-01-01T23:55:00Z", 1},
		{"overnight counts both days", "2024-01-01T23:59:00Z", "2024-01-02T00:01:00Z", 2},
		{"three calendar dates", "2024-01-01T12:00:00Z", "2024-01-03T08:00:00Z", 3},
		{"across month boundary", "2024-01-31T12:00:00Z", "2024-02-02T12:00:00Z", 3},
		{"across leap day", "2024-02-28T12:00:00Z", "2024-03-01T12:00:00Z", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calendarDaysBetween(mustTime(t, tt.start), mustTime(t, tt.end))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2024-07-09", dayKey(mustTime(t, "2024-07-09T23:59:59Z")))
}
