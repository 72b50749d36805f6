package period

import "time"

// Type classifies a date range relative to today. It decides which price
// source is authoritative: past ranges use historical averages, current and
// future ranges use forward prices.
type Type string

const (
	Past    Type = "past"
	Current Type = "current"
	Future  Type = "future"
)

// Classify compares [start, end] with today by calendar date:
//   - end before today    → Past
//   - start after today   → Future
//   - otherwise           → Current (the range straddles or touches today)
func Classify(start, end, today time.Time) Type {
	start, end = Normalize(start, end)
	d := TruncateToDate(today)
	switch {
	case TruncateToDate(end).Before(d):
		return Past
	case TruncateToDate(start).After(d):
		return Future
	default:
		return Current
	}
}

// ClassifyMonth classifies a whole calendar month.
func ClassifyMonth(m MonthCode, today time.Time) Type {
	return Classify(m.Start(), m.End(), today)
}

// IsDateRangeInFuture reports whether the range lies entirely after today.
// It is derived from Classify so both checks always agree.
func IsDateRangeInFuture(start, end, today time.Time) bool {
	return Classify(start, end, today) == Future
}
