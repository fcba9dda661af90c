// Package clock holds the wall-clock and calendar helpers shared by the
// fixture generator and the standings engine.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for day dates and windows.
const DateLayout = "2006-01-02"

// ParseHHMM parses a "HH:MM" string into minutes after midnight.
func ParseHHMM(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 || len(m) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hours*60 + minutes, nil
}

// FormatHHMM renders minutes after midnight as "HH:MM". The hour wraps at
// 24 but the day is never rolled over.
func FormatHHMM(totalMinutes int) string {
	hours := (totalMinutes / 60) % 24
	minutes := totalMinutes % 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// ParseDate parses a "YYYY-MM-DD" date at midnight in loc. A nil loc means UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DayRange returns the half-open interval [start, end) covering the given
// calendar date in loc.
func DayRange(date string, loc *time.Location) (start, end time.Time, err error) {
	start, err = ParseDate(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(24 * time.Hour), nil
}

// DateKey returns the UTC calendar date of t as "YYYY-MM-DD".
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// At combines a calendar date and a "HH:MM" start time into a timestamp.
func At(date, hhmm string, loc *time.Location) (time.Time, error) {
	minutes, err := ParseHHMM(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return AtMinutes(date, minutes, loc)
}

// AtMinutes returns the wall-clock time minutes after midnight of date in
// loc. Minutes past 24:00 roll into the next day.
func AtMinutes(date string, minutes int, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, day.Location()), nil
}
