package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used everywhere a
// session date is parsed or printed.
const DateLayout = time.DateOnly

const day = 24 * time.Hour

// TimeOfDay is a wall-clock time expressed as the offset from midnight.
// Valid values lie in [00:00, 24:00).
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	t := TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	if hour < 0 || minute < 0 || minute > 59 || !t.Valid() {
		return 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return t, nil
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = time.TimeOnly
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second), nil
}

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && time.Duration(t) < day
}

// String prints HH:MM, or HH:MM:SS when seconds are set.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// On anchors t to the given calendar date.
func (t TimeOfDay) On(date time.Time) time.Time {
	return NormalizeDate(date).Add(time.Duration(t))
}

// ParseDate parses an ISO-8601 calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// NormalizeDate drops the clock part and location of d, keeping its
// calendar date as UTC midnight.
func NormalizeDate(d time.Time) time.Time {
	y, m, dd := d.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}
