package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical calendar-day layout.
	DateLayout = "2006/01/02"
	// TimeLayout is the canonical time-of-day layout.
	TimeLayout = "15:04"
)

// NormalizeDate converts a slash- or dash-delimited "YYYY/MM/DD" string to canonical form.
func NormalizeDate(s string) (string, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "/")
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Format(DateLayout), nil
}

// ParseDate parses a canonical (or dash-delimited) date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "/")
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as a canonical date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateFromMillis converts an epoch-millisecond instant to the calendar day it falls on in loc.
func DateFromMillis(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(DateLayout)
}

// DateMillis converts a date string to the epoch milliseconds of its midnight in loc.
func DateMillis(date string, loc *time.Location) (int64, error) {
	t, err := ParseDate(date, loc)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// NormalizeTime validates an "HH:mm" string and returns it zero-padded.
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Format(TimeLayout), nil
}

// WeekStart returns midnight of the Sunday starting the week that contains t.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}
