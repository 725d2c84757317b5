// Package schedule holds the production-date arithmetic for wine batches.
// All decisions happen at calendar-day granularity in one configured
// business timezone, no matter where the caller is.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Calendar performs day-granularity date math in the business timezone.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(tz string) (*Calendar, error) {
	trimmed := strings.TrimSpace(tz)
	if trimmed == "" {
		return nil, fmt.Errorf("business timezone is required")
	}

	loc, err := time.LoadLocation(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", tz, err)
	}

	return &Calendar{loc: loc}, nil
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// DateOnly localizes t into the business timezone and truncates it to
// midnight of that calendar day.
func (c *Calendar) DateOnly(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// Today returns the business-timezone calendar day containing now.
func (c *Calendar) Today(now time.Time) time.Time {
	return c.DateOnly(now)
}

// AddDays adds n calendar days. Using AddDate on a midnight-normalized
// value keeps the result at local midnight across DST transitions.
func (c *Calendar) AddDays(t time.Time, n int) time.Time {
	return c.DateOnly(t).AddDate(0, 0, n)
}

func (c *Calendar) AddWeeks(t time.Time, n int) time.Time {
	return c.AddDays(t, 7*n)
}

// AvoidSundayEnd shifts a date that lands on Sunday forward one day.
// The shift is terminal: Monday is never forbidden, so no re-check.
func (c *Calendar) AvoidSundayEnd(t time.Time) time.Time {
	day := c.DateOnly(t)
	if day.Weekday() == time.Sunday {
		return day.AddDate(0, 0, 1)
	}
	return day
}

func (c *Calendar) SameDay(a, b time.Time) bool {
	return c.DateOnly(a).Equal(c.DateOnly(b))
}

// BeforeDay reports whether a falls on a strictly earlier calendar day than b.
func (c *Calendar) BeforeDay(a, b time.Time) bool {
	return c.DateOnly(a).Before(c.DateOnly(b))
}
