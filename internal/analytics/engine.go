// Package analytics computes read-side aggregates over a user's expenses and
// reconciles them against budgets.
//
// Grouping happens in Go over expenses returned in insertion order. Every sort
// is stable, so groups with equal totals keep the order in which their first
// expense was recorded.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"finsight/internal/core"
)

// ExpenseReader lists a user's expenses in insertion order. A zero start or
// end leaves that side of the window open; both bounds are inclusive.
type ExpenseReader interface {
	ListExpensesInRange(ctx context.Context, userID string, start, end time.Time) ([]core.Expense, error)
}

type Engine struct {
	expenses ExpenseReader
}

func NewEngine(expenses ExpenseReader) *Engine {
	return &Engine{expenses: expenses}
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) before(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

func monthOf(e core.Expense) monthKey {
	t := e.Date.UTC()
	return monthKey{year: t.Year(), month: t.Month()}
}

type bucket[K comparable] struct {
	key   K
	total core.Money
	count int
	items []core.Expense
}

// group buckets expenses by key, keeping buckets in first-appearance order.
func group[K comparable](expenses []core.Expense, keyOf func(core.Expense) K) []*bucket[K] {
	index := make(map[K]*bucket[K])
	var out []*bucket[K]
	for _, e := range expenses {
		k := keyOf(e)
		b, ok := index[k]
		if !ok {
			b = &bucket[K]{key: k}
			index[k] = b
			out = append(out, b)
		}
		b.total = b.total.Add(e.Amount)
		b.count++
		b.items = append(b.items, e)
	}
	return out
}

func byTotalDesc[K comparable](buckets []*bucket[K]) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].total.Cents > buckets[j].total.Cents
	})
}

// recentMonths keeps the n most recent month buckets and returns them ascending.
func recentMonths[T any](buckets []*bucket[monthKey], n int, build func(*bucket[monthKey]) T) []T {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[j].key.before(buckets[i].key)
	})
	if n < len(buckets) {
		buckets = buckets[:n]
	}
	out := make([]T, 0, len(buckets))
	for i := len(buckets) - 1; i >= 0; i-- {
		out = append(out, build(buckets[i]))
	}
	return out
}

func categoryOf(e core.Expense) core.Category { return e.Category }

// CategoryTotals groups the window's expenses by category, largest total first.
// Categories without expenses are omitted.
func (e *Engine) CategoryTotals(ctx context.Context, userID string, start, end time.Time) ([]core.CategoryTotal, error) {
	expenses, err := e.expenses.ListExpensesInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return categoryTotals(expenses), nil
}

func categoryTotals(expenses []core.Expense) []core.CategoryTotal {
	buckets := group(expenses, categoryOf)
	byTotalDesc(buckets)
	out := make([]core.CategoryTotal, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, core.CategoryTotal{Category: b.key, Total: b.total, Count: b.count})
	}
	return out
}

// MonthlyTrend returns the most recent months distinct months that have
// expenses, in ascending calendar order.
func (e *Engine) MonthlyTrend(ctx context.Context, userID string, months int) ([]core.MonthTotal, error) {
	if months <= 0 {
		return []core.MonthTotal{}, nil
	}
	expenses, err := e.expenses.ListExpensesInRange(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return recentMonths(group(expenses, monthOf), months, func(b *bucket[monthKey]) core.MonthTotal {
		return core.MonthTotal{
			Year:      b.key.year,
			Month:     int(b.key.month),
			MonthName: core.MonthName(b.key.month),
			Total:     b.total,
			Count:     b.count,
		}
	}), nil
}

// CategoryMonthlyTrend is MonthlyTrend with each month broken down by category.
func (e *Engine) CategoryMonthlyTrend(ctx context.Context, userID string, months int) ([]core.CategoryMonth, error) {
	if months <= 0 {
		return []core.CategoryMonth{}, nil
	}
	expenses, err := e.expenses.ListExpensesInRange(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return recentMonths(group(expenses, monthOf), months, func(b *bucket[monthKey]) core.CategoryMonth {
		cats := group(b.items, categoryOf)
		byTotalDesc(cats)
		amounts := make([]core.CategoryAmount, 0, len(cats))
		for _, c := range cats {
			amounts = append(amounts, core.CategoryAmount{Category: c.key, Total: c.total})
		}
		return core.CategoryMonth{
			Year:       b.key.year,
			Month:      int(b.key.month),
			MonthName:  core.MonthName(b.key.month),
			Categories: amounts,
			MonthTotal: b.total,
		}
	}), nil
}

// YearlySummary returns one entry per month of year that has expenses, January first.
func (e *Engine) YearlySummary(ctx context.Context, userID string, year int) ([]core.MonthTotal, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	expenses, err := e.expenses.ListExpensesInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	buckets := group(expenses, func(e core.Expense) time.Month { return e.Date.UTC().Month() })
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].key < buckets[j].key })
	out := make([]core.MonthTotal, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, core.MonthTotal{
			Year:      year,
			Month:     int(b.key),
			MonthName: core.MonthName(b.key),
			Total:     b.total,
			Count:     b.count,
		})
	}
	return out, nil
}

// TopCategories ranks categories by total and keeps the first limit.
func (e *Engine) TopCategories(ctx context.Context, userID string, limit int, start, end time.Time) ([]core.TopCategory, error) {
	if limit <= 0 {
		return []core.TopCategory{}, nil
	}
	expenses, err := e.expenses.ListExpensesInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	buckets := group(expenses, categoryOf)
	byTotalDesc(buckets)
	if limit < len(buckets) {
		buckets = buckets[:limit]
	}
	out := make([]core.TopCategory, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, core.TopCategory{
			Category:   b.key,
			Total:      b.total,
			Count:      b.count,
			AvgExpense: b.total.Average(b.count),
		})
	}
	return out, nil
}

// Summary reports count, sum, mean and extremes over the window.
func (e *Engine) Summary(ctx context.Context, userID string, start, end time.Time) (core.ExpenseSummary, error) {
	expenses, err := e.expenses.ListExpensesInRange(ctx, userID, start, end)
	if err != nil {
		return core.ExpenseSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	var s core.ExpenseSummary
	for i, exp := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(exp.Amount)
		if i == 0 || exp.Amount.Cents > s.MaxExpense.Cents {
			s.MaxExpense = exp.Amount
		}
		if i == 0 || exp.Amount.Cents < s.MinExpense.Cents {
			s.MinExpense = exp.Amount
		}
	}
	s.ExpenseCount = len(expenses)
	s.AvgExpense = s.TotalExpenses.Average(s.ExpenseCount)
	return s, nil
}

// MonthTotal sums every expense of the month containing now, regardless of budgets.
func (e *Engine) MonthTotal(ctx context.Context, userID string, now time.Time) (core.Money, int, error) {
	start, end := core.CurrentMonthRange(now)
	expenses, err := e.expenses.ListExpensesInRange(ctx, userID, start, end)
	if err != nil {
		return core.Money{}, 0, fmt.Errorf("list expenses: %w", err)
	}
	var total core.Money
	for _, exp := range expenses {
		total = total.Add(exp.Amount)
	}
	return total, len(expenses), nil
}
