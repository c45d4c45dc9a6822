// Package session provides the day-count conventions used across the engine:
// a 252 trading-day convention for gamma-exposure time-to-expiry and a plain
// 365 calendar-day convention elsewhere.
package session

import (
	"time"

	"github.com/scmhub/calendar"
)

// minYears is the floor applied to computed time-to-expiry so same-day
// expirations still price instead of hitting the degenerate-input guard.
const minYears = 1e-4

var nyse = calendar.XNYS()

// TradingYears returns the NYSE business days between asOf and expiry divided
// by 252, clamped to a small positive value.
func TradingYears(asOf, expiry time.Time) float64 {
	days := businessDaysBetween(midnightUTC(asOf), midnightUTC(expiry))
	years := float64(days) / 252
	if years < minYears {
		return minYears
	}
	return years
}

// CalendarYears returns calendar days between asOf and expiry divided by 365,
// clamped to a small positive value.
func CalendarYears(asOf, expiry time.Time) float64 {
	years := expiry.Sub(asOf).Hours() / 24 / 365
	if years < minYears {
		return minYears
	}
	return years
}

// businessDaysBetween counts NYSE trading days in (from, to], walking day by
// day. Chains rarely extend past two years so the walk is cheap.
func businessDaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	days := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if nyse.IsBusinessDay(d) {
			days++
		}
	}
	return days
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
