package period

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRange is returned when a range starts after it ends. Callers
// that accept out-of-order persisted dates swap them with Normalize first.
var ErrInvalidRange = errors.New("invalid date range: start after end")

// Normalize returns the range with start <= end.
func Normalize(start, end time.Time) (time.Time, time.Time) {
	if TruncateToDate(start).After(TruncateToDate(end)) {
		return end, start
	}
	return start, end
}

// DistributeQuantityByWorkingDays splits quantity across the calendar months
// intersecting [start, end] in proportion to each month's working days.
//
// Behavior:
//   - Weight of month M = working days of M in range / working days in range.
//   - Shares are computed in decimal arithmetic; the last month with working
//     days absorbs whatever residual is left so the shares always sum to quantity.
//   - A range without any working day (e.g. a single Saturday) assigns the
//     full quantity to start's month.
//
// Returns ErrInvalidRange when start is after end.
func DistributeQuantityByWorkingDays(start, end time.Time, quantity float64) (map[MonthCode]float64, error) {
	if TruncateToDate(start).After(TruncateToDate(end)) {
		return nil, ErrInvalidRange
	}

	months, counts := WorkingDaysByMonth(start, end)
	total := 0
	last := -1
	for i, m := range months {
		total += counts[m]
		if counts[m] > 0 {
			last = i
		}
	}

	out := make(map[MonthCode]float64, len(months))
	if total == 0 {
		out[MonthOf(start)] = quantity
		return out, nil
	}

	qty := decimal.NewFromFloat(quantity)
	days := decimal.NewFromInt(int64(total))
	allocated := decimal.Zero
	for i, m := range months {
		n := counts[m]
		if n == 0 {
			continue
		}
		var share decimal.Decimal
		if i == last {
			share = qty.Sub(allocated)
		} else {
			share = qty.Mul(decimal.NewFromInt(int64(n))).Div(days)
			allocated = allocated.Add(share)
		}
		out[m] = share.InexactFloat64()
	}
	return out, nil
}
