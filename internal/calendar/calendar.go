// Package calendar decides which days count as tutoring session days
// and derives session-package end dates from them.
package calendar

import "time"

// HolidayProvider returns the holiday set for a calendar year. Years the
// provider does not know about yield an empty set, not an error.
type HolidayProvider interface {
	HolidaysFor(year int) map[time.Time]bool
}

// Day truncates t to a calendar date at UTC midnight. All date math in
// this package operates on Day-normalized values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsSessionDay reports whether d is a valid session day: not a weekend
// when excludeWeekends is set, and not in the holiday set.
func IsSessionDay(d time.Time, excludeWeekends bool, holidays map[time.Time]bool) bool {
	d = Day(d)
	if excludeWeekends {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	return !holidays[d]
}

// BusinessDaysBetween counts Monday–Friday dates in [start, end]
// inclusive. Returns 0 when start is after end.
func BusinessDaysBetween(start, end time.Time) int {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return 0
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// ResolveEndDate walks forward from start one day at a time and returns
// the date on which the totalSessions-th valid session day falls. The
// start date itself counts as the first session when it is valid; an
// invalid start simply advances until counting can begin.
//
// totalSessions must be >= 1; callers bound it (packages cap at 50) so
// the walk terminates. A holiday set that blankets every candidate day
// would not occur with the static tables in use.
func ResolveEndDate(start time.Time, totalSessions int, excludeWeekends bool, holidays map[time.Time]bool) time.Time {
	current := Day(start)
	counted := 0
	for {
		if IsSessionDay(current, excludeWeekends, holidays) {
			counted++
			if counted >= totalSessions {
				return current
			}
		}
		current = current.AddDate(0, 0, 1)
	}
}
