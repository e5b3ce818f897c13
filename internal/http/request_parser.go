package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finsight/internal/auth"
	"finsight/internal/core"
	"finsight/internal/storage"
)

const (
	dateLayout = "2006-01-02"

	defaultListLimit   = 100
	maxListLimit       = 1000
	defaultTrendMonths = 6
	maxTrendMonths     = 120
	defaultTopLimit    = 5
)

// DateRange is an optional inclusive window. Zero bounds are open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. The result is in UTC.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, value); err != nil {
			return time.Time{}, core.NewValidationError(field, "must be a date in YYYY-MM-DD format")
		}
	}
	t = t.UTC()
	if !core.DateInRange(t) {
		return time.Time{}, core.NewValidationError(field, core.DateRangeMessage)
	}
	return t, nil
}

// ParseDateRange reads startDate and endDate. A date-only endDate covers its
// whole day.
func ParseDateRange(query url.Values) (DateRange, error) {
	var rng DateRange
	if v := strings.TrimSpace(query.Get("startDate")); v != "" {
		t, err := ParseDate("startDate", v)
		if err != nil {
			return DateRange{}, err
		}
		rng.Start = t
	}
	if v := strings.TrimSpace(query.Get("endDate")); v != "" {
		t, err := ParseDate("endDate", v)
		if err != nil {
			return DateRange{}, err
		}
		if len(v) == len(dateLayout) {
			t = core.EndOfDay(t)
		}
		rng.End = t
	}
	if !rng.Start.IsZero() && !rng.End.IsZero() && rng.End.Before(rng.Start) {
		return DateRange{}, core.NewValidationError("endDate", "must not be before startDate")
	}
	return rng, nil
}

// ParseIntParam reads an optional integer in [min, max], returning def when
// the parameter is absent.
func ParseIntParam(query url.Values, name string, def, min, max int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.NewValidationError(name, "must be a whole number")
	}
	if n < min || n > max {
		return 0, core.NewValidationError(name, "must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return n, nil
}

// ParseBool treats "true", "1" and "yes" as true and anything else as false.
func ParseBool(query url.Values, name string) bool {
	switch strings.ToLower(strings.TrimSpace(query.Get(name))) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// ParseCategoryParam reads an optional category filter.
func ParseCategoryParam(query url.Values) (core.Category, error) {
	v := strings.TrimSpace(query.Get("category"))
	if v == "" {
		return "", nil
	}
	return core.ParseCategory(v)
}

// ParseMonthParam reads an optional YYYY-MM month.
func ParseMonthParam(query url.Values) (string, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v != "" && !core.ValidMonth(v) {
		return "", core.NewValidationError("month", "must be in YYYY-MM format")
	}
	return v, nil
}

// ParseExpenseFilter reads the list and export filters.
func ParseExpenseFilter(query url.Values, paginate bool) (storage.ExpenseFilter, error) {
	category, err := ParseCategoryParam(query)
	if err != nil {
		return storage.ExpenseFilter{}, err
	}
	rng, err := ParseDateRange(query)
	if err != nil {
		return storage.ExpenseFilter{}, err
	}
	f := storage.ExpenseFilter{Category: category, Start: rng.Start, End: rng.End}
	if !paginate {
		return f, nil
	}
	if f.Limit, err = ParseIntParam(query, "limit", defaultListLimit, 1, maxListLimit); err != nil {
		return storage.ExpenseFilter{}, err
	}
	if f.Skip, err = ParseIntParam(query, "skip", 0, 0, int(^uint32(0)>>1)); err != nil {
		return storage.ExpenseFilter{}, err
	}
	return f, nil
}

// userID returns the id resolved by the auth middleware.
func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}
