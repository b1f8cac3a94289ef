package domain

import "time"

type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

func (i RecurringInterval) IsValid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// NextOccurrence returns the date one interval after from. Month and year steps
// keep the day of month when it exists and otherwise land on the last day of
// the target month, so Jan 31 + MONTHLY is Feb 28 (or 29).
// An unknown interval returns from unchanged.
func NextOccurrence(from time.Time, interval RecurringInterval) time.Time {
	switch interval {
	case IntervalDaily:
		return from.AddDate(0, 0, 1)
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return addMonthsClamped(from, 1)
	case IntervalYearly:
		return addMonthsClamped(from, 12)
	default:
		return from
	}
}

func addMonthsClamped(from time.Time, months int) time.Time {
	year, month, day := from.Date()
	hour, minute, sec := from.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, from.Location())
	lastDay := daysIn(firstOfTarget.Year(), firstOfTarget.Month(), from.Location())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, from.Nanosecond(), from.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// MonthBounds returns [start of t's month, start of the following month).
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// PreviousMonthBounds returns the bounds of the calendar month before t.
func PreviousMonthBounds(t time.Time) (time.Time, time.Time) {
	start, _ := MonthBounds(t)
	return MonthBounds(start.AddDate(0, -1, 0))
}
