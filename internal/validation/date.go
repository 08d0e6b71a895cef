package validation

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrDateInvalid = errors.New("please use the YYYY-MM-DD date format")
	ErrDatePast    = errors.New("date must be in the future")
)

// dateLayouts are the accepted input formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2 January 2006",
	"January 2, 2006",
}

// ParseDate parses a date from one of the accepted layouts.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrDateInvalid
}

// ParseFutureDate parses a date and rejects anything on or before today.
func ParseFutureDate(raw string, today time.Time) (time.Time, error) {
	d, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !d.After(day) {
		return time.Time{}, ErrDatePast
	}
	return d, nil
}
