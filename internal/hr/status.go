package hr

import (
	"math"
	"time"
)

// DeriveStatus computes the effective lifecycle state of h at time now.
//
//  1. A stored Resolved status or any removal date yields Resolved.
//  2. A stored Pending Approval status yields Pending Approval.
//  3. More than slaThresholdDays calendar days since the start date yields Overdue.
//  4. Anything else is Active.
//
// The result depends on the wall clock and must not be persisted or cached across reads.
func DeriveStatus(h *Hindrance, slaThresholdDays int, now time.Time) Status {
	if h.Status == StatusResolved || h.IsRemoved() {
		return StatusResolved
	}
	if h.Status == StatusPendingApproval {
		return StatusPendingApproval
	}
	if DaysSince(h.StartDate, now) > slaThresholdDays {
		return StatusOverdue
	}
	return StatusActive
}

// DaysSince returns the number of calendar days from date to the day of now, ignoring the
// time of day. Unparseable or empty dates count as zero days.
func DaysSince(date string, now time.Time) int {
	d, ok := ParseDate(date)
	if !ok {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(today.Sub(d).Hours() / 24))
}

// DaysBetween returns the absolute number of calendar days between two dates,
// or zero when either is missing.
func DaysBetween(start, end string) int {
	s, ok1 := ParseDate(start)
	e, ok2 := ParseDate(end)
	if !ok1 || !ok2 {
		return 0
	}
	days := int(math.Round(e.Sub(s).Hours() / 24))
	if days < 0 {
		return -days
	}
	return days
}

// ParseDate parses a YYYY-MM-DD date, also accepting a full timestamp whose first
// ten characters are a date. The result is midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	if len(s) < len(DateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FormatDate renders t's calendar day in storage form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
