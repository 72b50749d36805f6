package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const monthCodeLayout = "2006-01"

// ErrInvalidMonthCode is returned when a month string matches none of the accepted layouts.
var ErrInvalidMonthCode = errors.New("invalid month code")

// MonthCode is a calendar month in the form YYYY-MM. It is the bucket key
// for every exposure aggregation and sorts lexically in calendar order.
type MonthCode string

// alternate layouts seen on persisted trading periods ("Mar-24", "March 2024", ...)
var monthLayouts = []string{
	monthCodeLayout,
	"Jan-06",
	"Jan-2006",
	"Jan 06",
	"Jan 2006",
	"January 2006",
	"January-2006",
	"2006/01",
	"01/2006",
}

// MonthOf returns the month code containing t.
func MonthOf(t time.Time) MonthCode {
	return MonthCode(t.Format(monthCodeLayout))
}

// ParseMonthCode accepts the canonical YYYY-MM layout and the short forms
// used on trade tickets (e.g. "Mar-24"). Full dates (YYYY-MM-DD) resolve
// to their month.
func ParseMonthCode(s string) (MonthCode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidMonthCode
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return MonthOf(t), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMonthCode, s)
}

// Time returns the first day of the month at midnight UTC.
func (m MonthCode) Time() time.Time {
	t, err := time.Parse(monthCodeLayout, string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Valid reports whether m is a well-formed YYYY-MM code.
func (m MonthCode) Valid() bool {
	_, err := time.Parse(monthCodeLayout, string(m))
	return err == nil
}

// Start returns the first day of the month.
func (m MonthCode) Start() time.Time { return m.Time() }

// End returns the last day of the month.
func (m MonthCode) End() time.Time {
	return m.Time().AddDate(0, 1, -1)
}

// Add returns the month n months after m (n may be negative).
func (m MonthCode) Add(n int) MonthCode {
	return MonthOf(m.Time().AddDate(0, n, 0))
}

// Before reports whether m sorts strictly before o.
func (m MonthCode) Before(o MonthCode) bool { return m < o }

// Compare returns -1, 0 or +1.
func (m MonthCode) Compare(o MonthCode) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

// Label renders the month the way trade tickets show it, e.g. "Jun-24".
func (m MonthCode) Label() string {
	return m.Time().Format("Jan-06")
}

func (m MonthCode) String() string { return string(m) }

// MonthsBetween lists every month from start's month to end's month inclusive.
// It returns nil when end is before start.
func MonthsBetween(start, end time.Time) []MonthCode {
	first, last := MonthOf(start), MonthOf(end)
	if last.Before(first) {
		return nil
	}
	var out []MonthCode
	for m := first; !last.Before(m); m = m.Add(1) {
		out = append(out, m)
	}
	return out
}
