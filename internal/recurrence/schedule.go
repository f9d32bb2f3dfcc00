// Package recurrence implements the next-due-date calculator for recurring
// inspection schedules. It is pure calendar arithmetic: no I/O, no clock
// reads, fully deterministic for a given input.
//
// Month-based frequencies never use time.AddDate for the month step, because
// it normalizes overflow (Jan 31 + 1 month = Mar 2/3). The year and month are
// computed explicitly and the day is clamped to the target month's length, so
// a dayOfMonth of 31 lands on Feb 29 in a leap year and Feb 28 otherwise.
package recurrence

import (
	"time"

	"github.com/facilityhub/facilityhub/internal/db/models"
)

// Next computes the due date following from for the given frequency and
// interval. dayOfMonth anchors month-based frequencies; dayOfWeek (Sunday=0)
// shifts weekly results forward within the landing week. Both anchors are
// optional and ignored by frequencies they do not apply to.
//
// An interval below 1 is treated as 1.
func Next(freq models.Frequency, interval int, from time.Time, dayOfMonth, dayOfWeek *int) time.Time {
	if interval < 1 {
		interval = 1
	}

	switch freq {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, interval)

	case models.FrequencyWeekly:
		next := from.AddDate(0, 0, 7*interval)
		if dayOfWeek != nil {
			// Forward-only shift: 0..6 days, never into the previous week.
			shift := (*dayOfWeek - int(next.Weekday()) + 7) % 7
			next = next.AddDate(0, 0, shift)
		}
		return next

	case models.FrequencyMonthly:
		return addMonths(from, interval, dayOfMonth)

	case models.FrequencyQuarterly:
		return addMonths(from, 3*interval, dayOfMonth)

	case models.FrequencyYearly:
		return addMonths(from, 12*interval, dayOfMonth)

	default:
		// Unknown frequency: advance one day so a bad row cannot wedge the
		// generator in a tight loop on the same due date.
		return from.AddDate(0, 0, 1)
	}
}

// addMonths advances from by the given number of months, anchoring the day to
// dayOfMonth when set (else keeping from's day) and clamping to the last day
// of the target month.
func addMonths(from time.Time, months int, dayOfMonth *int) time.Time {
	year, month, day := from.Date()

	idx := int(month) - 1 + months
	year += idx / 12
	month = time.Month(idx%12 + 1)

	if dayOfMonth != nil && *dayOfMonth >= 1 {
		day = *dayOfMonth
	}
	if last := daysIn(year, month); day > last {
		day = last
	}

	hour, min, sec := from.Clock()
	return time.Date(year, month, day, hour, min, sec, from.Nanosecond(), from.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
