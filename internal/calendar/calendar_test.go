package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsSessionDay(t *testing.T) {
	holidays := map[time.Time]bool{date(2025, time.June, 6): true}

	if !IsSessionDay(date(2025, time.June, 4), true, holidays) {
		t.Fatalf("expected Wednesday to be a session day")
	}
	if IsSessionDay(date(2025, time.June, 7), true, holidays) {
		t.Fatalf("expected Saturday to be skipped when weekends excluded")
	}
	if !IsSessionDay(date(2025, time.June, 7), false, holidays) {
		t.Fatalf("expected Saturday to count when weekends included")
	}
	if IsSessionDay(date(2025, time.June, 6), true, holidays) {
		t.Fatalf("expected holiday to be skipped")
	}
	if IsSessionDay(date(2025, time.June, 6), false, holidays) {
		t.Fatalf("expected holiday to be skipped regardless of weekend rule")
	}
}

func TestIsSessionDayIgnoresTimeOfDay(t *testing.T) {
	holidays := map[time.Time]bool{date(2025, time.June, 6): true}
	noon := time.Date(2025, time.June, 6, 12, 30, 0, 0, time.UTC)
	if IsSessionDay(noon, false, holidays) {
		t.Fatalf("expected holiday match on date regardless of clock time")
	}
}

func TestBusinessDaysBetween(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single weekday", date(2025, time.June, 4), date(2025, time.June, 4), 1},
		{"full week", date(2025, time.June, 2), date(2025, time.June, 8), 5},
		{"weekend only", date(2025, time.June, 7), date(2025, time.June, 8), 0},
		{"start after end", date(2025, time.June, 9), date(2025, time.June, 2), 0},
		{"two weeks", date(2025, time.June, 2), date(2025, time.June, 15), 10},
	}
	for _, tc := range cases {
		if got := BusinessDaysBetween(tc.start, tc.end); got != tc.want {
			t.Fatalf("%s: expected %d business days, got %d", tc.name, tc.want, got)
		}
	}
}

func TestResolveEndDateSingleSessionNoExclusions(t *testing.T) {
	start := date(2025, time.June, 7) // a Saturday
	end := ResolveEndDate(start, 1, false, nil)
	if !end.Equal(start) {
		t.Fatalf("expected single session with no exclusions to end on start, got %s", end)
	}
}

func TestResolveEndDateSkipsWeekend(t *testing.T) {
	friday := date(2025, time.June, 6)
	end := ResolveEndDate(friday, 2, true, nil)
	monday := date(2025, time.June, 9)
	if !end.Equal(monday) {
		t.Fatalf("expected Friday+2 sessions to end Monday %s, got %s", monday, end)
	}
}

func TestResolveEndDateHolidayStartAdvances(t *testing.T) {
	holidays := map[time.Time]bool{date(2025, time.June, 6): true}
	end := ResolveEndDate(date(2025, time.June, 6), 1, true, holidays)
	if !end.Equal(date(2025, time.June, 9)) {
		t.Fatalf("expected holiday Friday start to land on Monday, got %s", end)
	}
}

func TestResolveEndDateCountsExactly(t *testing.T) {
	provider := KoreanHolidays{}
	holidays := provider.HolidaysFor(2025)
	cases := []struct {
		start    time.Time
		sessions int
		weekends bool
	}{
		{date(2025, time.January, 2), 10, true},
		{date(2025, time.April, 28), 20, true},
		{date(2025, time.September, 29), 15, true},
		{date(2025, time.December, 22), 8, false},
	}
	for _, tc := range cases {
		end := ResolveEndDate(tc.start, tc.sessions, tc.weekends, holidays)
		if end.Before(tc.start) {
			t.Fatalf("end %s precedes start %s", end, tc.start)
		}
		counted := 0
		for d := tc.start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if IsSessionDay(d, tc.weekends, holidays) {
				counted++
			}
		}
		if counted != tc.sessions {
			t.Fatalf("start %s: expected exactly %d session days through %s, counted %d",
				tc.start, tc.sessions, end, counted)
		}
	}
}

func TestKoreanHolidaysKnownYears(t *testing.T) {
	provider := KoreanHolidays{}
	for _, year := range []int{2024, 2025, 2026} {
		set := provider.HolidaysFor(year)
		if len(set) == 0 {
			t.Fatalf("expected holiday table for %d", year)
		}
		newYear := date(year, time.January, 1)
		if !set[newYear] {
			t.Fatalf("expected %s in the %d table", newYear, year)
		}
	}
}

func TestKoreanHolidaysUnknownYearIsEmpty(t *testing.T) {
	set := KoreanHolidays{}.HolidaysFor(1999)
	if set == nil {
		t.Fatalf("expected empty set, got nil")
	}
	if len(set) != 0 {
		t.Fatalf("expected no holidays for uncovered year, got %d", len(set))
	}
}
