package calendar

import "time"

// KoreanHolidays serves the static Korean public-holiday tables. Years
// without a table degrade to an empty set; the operation still works,
// it just stops skipping holidays.
type KoreanHolidays struct{}

func (KoreanHolidays) HolidaysFor(year int) map[time.Time]bool {
	dates, ok := koreanHolidayTables[year]
	if !ok {
		return map[time.Time]bool{}
	}
	set := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

func day(year int, month time.Month, dom int) time.Time {
	return time.Date(year, month, dom, 0, 0, 0, 0, time.UTC)
}

var koreanHolidayTables = map[int][]time.Time{
	2024: {
		day(2024, time.January, 1),
		day(2024, time.February, 9),
		day(2024, time.February, 10),
		day(2024, time.February, 11),
		day(2024, time.February, 12),
		day(2024, time.March, 1),
		day(2024, time.May, 5),
		day(2024, time.May, 15),
		day(2024, time.June, 6),
		day(2024, time.August, 15),
		day(2024, time.September, 16),
		day(2024, time.September, 17),
		day(2024, time.September, 18),
		day(2024, time.October, 3),
		day(2024, time.October, 9),
		day(2024, time.December, 25),
	},
	2025: {
		day(2025, time.January, 1),
		day(2025, time.January, 28),
		day(2025, time.January, 29),
		day(2025, time.January, 30),
		day(2025, time.March, 1),
		day(2025, time.May, 5),
		day(2025, time.June, 6),
		day(2025, time.August, 15),
		day(2025, time.October, 3),
		day(2025, time.October, 5),
		day(2025, time.October, 6),
		day(2025, time.October, 7),
		day(2025, time.October, 9),
		day(2025, time.December, 25),
	},
	2026: {
		day(2026, time.January, 1),
		day(2026, time.February, 16),
		day(2026, time.February, 17),
		day(2026, time.February, 18),
		day(2026, time.March, 1),
		day(2026, time.May, 5),
		day(2026, time.May, 24),
		day(2026, time.June, 6),
		day(2026, time.August, 15),
		day(2026, time.September, 24),
		day(2026, time.September, 25),
		day(2026, time.September, 26),
		day(2026, time.October, 3),
		day(2026, time.October, 9),
		day(2026, time.December, 25),
	},
}
