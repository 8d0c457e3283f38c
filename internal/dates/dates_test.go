package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantStart string
		wantEnd   string
	}{
		{"monday maps to itself", "2026-08-17", "2026-08-17", "2026-08-24"},
		{"midweek maps back to monday", "2026-08-19", "2026-08-17", "2026-08-24"},
		{"sunday belongs to the preceding monday", "2026-08-23", "2026-08-17", "2026-08-24"},
		{"year boundary", "2026-01-01", "2025-12-29", "2026-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := ParseYMD(tt.input)
			require.NoError(t, err)

			start, end := WeekBounds(day)
			assert.Equal(t, tt.wantStart, YMD(start))
			assert.Equal(t, tt.wantEnd, YMD(end))
		})
	}
}

func TestPrevWeekBounds(t *testing.T) {
	day, err := ParseYMD("2026-08-19")
	require.NoError(t, err)

	start, end := PrevWeekBounds(day)
	assert.Equal(t, "2026-08-10", YMD(start))
	assert.Equal(t, "2026-08-17", YMD(end))
}

func TestTruncateKeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	in := time.Date(2026, 8, 19, 22, 45, 3, 0, loc)
	out := Truncate(in)

	assert.Equal(t, 0, out.Hour())
	assert.Equal(t, loc, out.Location())
	assert.Equal(t, "2026-08-19", YMD(out))
}

func TestParseSubmissionDate(t *testing.T) {
	now := time.Date(2026, 8, 19, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantDay string
		wantOK  bool
	}{
		{"empty means today", "", "2026-08-19", true},
		{"explicit literal wins", "2026-08-01", "2026-08-01", true},
		{"literal with padding", "  2026-08-01  ", "2026-08-01", true},
		{"yesterday", "yesterday", "2026-08-18", true},
		{"natural language", "last friday", "2026-08-14", true},
		{"garbage falls back to today", "not a date at all", "2026-08-19", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, ok := ParseSubmissionDate(tt.input, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantDay, YMD(day))
		})
	}
}

func TestISOWeek(t *testing.T) {
	day, err := ParseYMD("2026-01-01")
	require.NoError(t, err)
	// 2026-01-01 is a Thursday, ISO week 1.
	assert.Equal(t, 1, ISOWeek(day))
}
