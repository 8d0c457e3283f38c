// Package dates provides the calendar helpers the ledger and aggregator share:
// week boundaries, ISO week numbers, and the YMD wire format used for row dates.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Layout is the date-only format stored in ledger rows and used for
// streak date-set keys.
const Layout = "2006-01-02"

// YMD formats a time as a date-only string.
func YMD(t time.Time) string { return t.Format(Layout) }

// ParseYMD parses a date-only string in the row format.
func ParseYMD(s string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Truncate drops the time-of-day portion, keeping the location.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekBounds returns the Monday 00:00 of t's week and the following Monday
// (exclusive upper bound).
func WeekBounds(t time.Time) (start, end time.Time) {
	day := Truncate(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	start = day.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 7)
	return start, end
}

// PrevWeekBounds returns the bounds of the ISO week immediately before t's week.
// This is the single "previous week" definition used by both digests and
// goal-status comparisons.
func PrevWeekBounds(t time.Time) (start, end time.Time) {
	return WeekBounds(t.AddDate(0, 0, -7))
}

// ISOWeek returns the ISO 8601 week number of t.
func ISOWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

var parser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}()

// ParseSubmissionDate resolves user-supplied date text to a calendar day.
// Empty input means today. Exact YMD strings win over natural-language
// parsing; anything unparseable falls back to today and reports ok=false
// so callers can log it.
func ParseSubmissionDate(input string, now time.Time) (day time.Time, ok bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Truncate(now), true
	}

	if t, err := ParseYMD(trimmed); err == nil {
		return t, true
	}

	if r, err := parser.Parse(trimmed, now); err == nil && r != nil {
		return Truncate(r.Time), true
	}

	return Truncate(now), false
}
