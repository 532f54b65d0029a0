// Package stats computes read-time projections over persisted
// attendance and payment records. Nothing here mutates state.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hejolabs/academy-manage/internal/db"
)

// AttendanceRate returns present-count / record-count x 100 rounded to
// one decimal, or nil when there are no records. Callers must treat
// nil as "no data"; an all-absent window legitimately returns 0.0.
func AttendanceRate(records []db.Attendance) *float64 {
	if len(records) == 0 {
		return nil
	}
	present := 0
	for _, rec := range records {
		if rec.Status == db.AttendanceStatusPresent {
			present++
		}
	}
	rate := round1(float64(present) / float64(len(records)) * 100)
	return &rate
}

// Streaks scans records, which must be ordered most recent first, and
// returns the longest run of consecutive present records and the
// longest run of consecutive absent records. Runs are consecutive in
// record order only; a gap of missing dates between two records does
// not break a run. Statuses other than present/absent break both runs.
func Streaks(records []db.Attendance) (maxPresent, maxAbsent int) {
	present, absent := 0, 0
	for _, rec := range records {
		switch rec.Status {
		case db.AttendanceStatusPresent:
			present++
			absent = 0
		case db.AttendanceStatusAbsent:
			absent++
			present = 0
		default:
			present, absent = 0, 0
		}
		if present > maxPresent {
			maxPresent = present
		}
		if absent > maxAbsent {
			maxAbsent = absent
		}
	}
	return maxPresent, maxAbsent
}

type MonthlyAttendance struct {
	Month       string  `json:"month"`
	PresentRate float64 `json:"present_rate"`
	Count       int     `json:"count"`
}

// MonthlyAttendanceTrend groups records by calendar year-month and
// reports the per-month present rate, sorted ascending by month.
func MonthlyAttendanceTrend(records []db.Attendance) []MonthlyAttendance {
	type bucket struct {
		present int
		total   int
	}
	buckets := map[string]*bucket{}
	for _, rec := range records {
		key := rec.Date.Format("2006-01")
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.total++
		if rec.Status == db.AttendanceStatusPresent {
			b.present++
		}
	}
	trend := make([]MonthlyAttendance, 0, len(buckets))
	for key, b := range buckets {
		trend = append(trend, MonthlyAttendance{
			Month:       key,
			PresentRate: round1(float64(b.present) / float64(b.total) * 100),
			Count:       b.total,
		})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Month < trend[j].Month })
	return trend
}

type RevenueBucket struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

// MonthlyRevenueTrend groups payments by the year-month of their start
// date and sums amounts, sorted ascending by month.
func MonthlyRevenueTrend(payments []db.Payment) []RevenueBucket {
	return revenueTrend(payments, func(p db.Payment) string {
		return p.StartDate.Format("2006-01")
	})
}

// QuarterlyRevenueTrend is MonthlyRevenueTrend with quarter buckets
// keyed like "2025-Q3".
func QuarterlyRevenueTrend(payments []db.Payment) []RevenueBucket {
	return revenueTrend(payments, func(p db.Payment) string {
		quarter := (int(p.StartDate.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", p.StartDate.Year(), quarter)
	})
}

func revenueTrend(payments []db.Payment, keyFn func(db.Payment) string) []RevenueBucket {
	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for _, p := range payments {
		key := keyFn(p)
		totals[key] = totals[key].Add(p.Amount)
		counts[key]++
	}
	trend := make([]RevenueBucket, 0, len(totals))
	for key, total := range totals {
		trend = append(trend, RevenueBucket{Period: key, Total: total, Count: counts[key]})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Period < trend[j].Period })
	return trend
}

// ProgressPercent is completed/total x 100 clamped to 100, rounded to
// one decimal. A non-positive total yields 0.0 rather than an error.
func ProgressPercent(completed, total int32) float64 {
	if total <= 0 {
		return 0.0
	}
	pct := float64(completed) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return round1(pct)
}

// DaysUntilExpiry is the signed number of days from today to endDate;
// negative means the package already expired.
func DaysUntilExpiry(endDate, today time.Time) int {
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, time.UTC)
	now := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(now).Hours() / 24)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
