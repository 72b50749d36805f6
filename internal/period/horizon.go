package period

import "time"

const (
	// ExposureHorizonMonths is the length of the exposure table horizon.
	ExposureHorizonMonths = 13

	tradesWindowBack    = 2
	tradesWindowForward = 4
)

// Horizon is an ordered run of consecutive months used as aggregation buckets.
type Horizon []MonthCode

// NewHorizon builds n consecutive months starting at start.
func NewHorizon(start MonthCode, n int) Horizon {
	if n < 1 {
		n = 1
	}
	h := make(Horizon, 0, n)
	for i := 0; i < n; i++ {
		h = append(h, start.Add(i))
	}
	return h
}

// ExposureHorizon returns the 13-month exposure horizon starting at today's month.
func ExposureHorizon(today time.Time) Horizon {
	return NewHorizon(MonthOf(today), ExposureHorizonMonths)
}

// TradesWindow returns the 7-month trades-per-month window: two months back,
// the current month and four months forward. It is independent from the
// exposure horizon.
func TradesWindow(today time.Time) Horizon {
	return NewHorizon(MonthOf(today).Add(-tradesWindowBack), tradesWindowBack+1+tradesWindowForward)
}

// Contains reports whether m is one of the horizon's months.
func (h Horizon) Contains(m MonthCode) bool {
	if len(h) == 0 {
		return false
	}
	return !m.Before(h[0]) && !h[len(h)-1].Before(m)
}

// First returns the first month or "" for an empty horizon.
func (h Horizon) First() MonthCode {
	if len(h) == 0 {
		return ""
	}
	return h[0]
}

// Last returns the last month or "" for an empty horizon.
func (h Horizon) Last() MonthCode {
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1]
}
