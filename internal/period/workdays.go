package period

import "time"

// IsWorkingDay returns true for Monday through Friday. No holiday calendar
// is applied: proration weights only exclude weekends.
func IsWorkingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TruncateToDate drops the clock part of t, keeping its location.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WorkingDaysByMonth counts working days per month in [start, end], both
// inclusive and compared by date. The slice of months is returned in
// calendar order and includes months with zero working days.
func WorkingDaysByMonth(start, end time.Time) ([]MonthCode, map[MonthCode]int) {
	start, end = TruncateToDate(start), TruncateToDate(end)
	counts := make(map[MonthCode]int)
	months := MonthsBetween(start, end)
	for _, m := range months {
		counts[m] = 0
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d) {
			counts[MonthOf(d)]++
		}
	}
	return months, counts
}

// CountWorkingDays returns the number of working days in [start, end].
func CountWorkingDays(start, end time.Time) int {
	_, counts := WorkingDaysByMonth(start, end)
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
