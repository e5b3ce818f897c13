package core

import (
	"regexp"
	"strconv"
	"time"
)

const MonthLayout = "2006-01"

// Dates are persisted as unix nanoseconds, which only reach 1678-2262.
// Anything outside [MinYear, MaxYear] is refused before it gets there.
const (
	MinYear = 1900
	MaxYear = 2199

	DateRangeMessage = "must be between 1900-01-01 and 2199-12-31"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func ValidMonth(s string) bool {
	if !monthPattern.MatchString(s) {
		return false
	}
	year, _ := strconv.Atoi(s[:4])
	return year >= MinYear && year <= MaxYear
}

// DateInRange reports whether t falls in a year the stores can hold.
func DateInRange(t time.Time) bool {
	y := t.UTC().Year()
	return y >= MinYear && y <= MaxYear
}

// MonthKey formats t as YYYY-MM in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// MonthRange returns the first and last instant of month, both inclusive.
func MonthRange(month string) (start, end time.Time, err error) {
	if !ValidMonth(month) {
		return time.Time{}, time.Time{}, NewValidationError("month", "must be in YYYY-MM format")
	}
	start, err = time.ParseInLocation(MonthLayout, month, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("month", "must be in YYYY-MM format")
	}
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond), nil
}

// CurrentMonthRange is MonthRange for the month containing now.
func CurrentMonthRange(now time.Time) (start, end time.Time) {
	start, end, _ = MonthRange(MonthKey(now))
	return start, end
}

// MonthName returns the three letter English abbreviation, e.g. "Jan".
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return m.String()[:3]
}

// EndOfDay moves t to the last nanosecond of its UTC day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
