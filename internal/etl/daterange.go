package etl

import "time"

// DefaultTrailingDays is the lookback window when no range is given.
const DefaultTrailingDays = 30

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultRange returns the trailing window ending today.
func DefaultRange(now time.Time) (time.Time, time.Time) {
	end := dateOnly(now)
	return end.AddDate(0, 0, -DefaultTrailingDays), end
}

// DayOf returns the single-day range containing now.
func DayOf(now time.Time) (time.Time, time.Time) {
	d := dateOnly(now)
	return d, d
}

// WeekOf returns the Monday through Sunday range containing now.
func WeekOf(now time.Time) (time.Time, time.Time) {
	d := dateOnly(now)
	start := d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	return start, start.AddDate(0, 0, 6)
}

// MonthOf returns the calendar month containing now.
func MonthOf(now time.Time) (time.Time, time.Time) {
	d := dateOnly(now)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).AddDate(0, 0, -1)
}
