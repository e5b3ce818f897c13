package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"finsight/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memReader filters an in-memory slice the way the SQLite store does.
type memReader struct {
	expenses []core.Expense
	err      error
}

func (m *memReader) ListExpensesInRange(_ context.Context, userID string, start, end time.Time) ([]core.Expense, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID != userID {
			continue
		}
		if !start.IsZero() && e.Date.Before(start) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func exp(cents int64, c core.Category, date time.Time) core.Expense {
	return core.Expense{UserID: "u1", Amount: core.Money{Cents: cents}, Category: c, Description: "x", Date: date}
}

// sampleReader holds four expenses for u1 and one for u2.
func sampleReader() *memReader {
	other := exp(99999, core.CategoryRent, day(2024, 3, 1))
	other.UserID = "u2"
	return &memReader{expenses: []core.Expense{
		exp(30000, core.CategoryFood, day(2024, 3, 2)),
		exp(10000, core.CategoryTravel, day(2024, 3, 10)),
		exp(8000, core.CategoryFood, day(2024, 2, 14)),
		exp(2000, core.CategoryBills, day(2023, 11, 30)),
		other,
	}}
}

func TestCategoryTotals(t *testing.T) {
	r := sampleReader()
	e := NewEngine(r)

	start, end := core.CurrentMonthRange(day(2024, 3, 15))
	totals, err := e.CategoryTotals(context.Background(), "u1", start, end)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, core.CategoryFood, totals[0].Category)
	assert.Equal(t, int64(30000), totals[0].Total.Cents)
	assert.Equal(t, 1, totals[0].Count)
	assert.Equal(t, core.CategoryTravel, totals[1].Category)

	all, err := e.CategoryTotals(context.Background(), "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(38000), all[0].Total.Cents)
	assert.Equal(t, 2, all[0].Count)
}

func TestCategoryTotalsTiesKeepInsertionOrder(t *testing.T) {
	e := NewEngine(&memReader{expenses: []core.Expense{
		exp(500, core.CategoryShopping, day(2024, 3, 1)),
		exp(500, core.CategoryBills, day(2024, 3, 2)),
		exp(500, core.CategoryEducation, day(2024, 3, 3)),
	}})
	totals, err := e.CategoryTotals(context.Background(), "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.Equal(t, []core.Category{core.CategoryShopping, core.CategoryBills, core.CategoryEducation},
		[]core.Category{totals[0].Category, totals[1].Category, totals[2].Category})
}

func TestMonthlyTrend(t *testing.T) {
	r := sampleReader()
	e := NewEngine(r)
	ctx := context.Background()

	trend, err := e.MonthlyTrend(ctx, "u1", 6)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, 2023, trend[0].Year)
	assert.Equal(t, 11, trend[0].Month)
	assert.Equal(t, "Nov", trend[0].MonthName)
	assert.Equal(t, "Mar", trend[2].MonthName)
	assert.Equal(t, int64(40000), trend[2].Total.Cents)
	assert.Equal(t, 2, trend[2].Count)

	recent, err := e.MonthlyTrend(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 2, recent[0].Month, "oldest months are dropped first")
	assert.Equal(t, 3, recent[1].Month)

	none, err := e.MonthlyTrend(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCategoryMonthlyTrend(t *testing.T) {
	r := sampleReader()
	trend, err := NewEngine(r).CategoryMonthlyTrend(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Len(t, trend, 1)

	march := trend[0]
	assert.Equal(t, 3, march.Month)
	assert.Equal(t, int64(40000), march.MonthTotal.Cents)
	require.Len(t, march.Categories, 2)
	assert.Equal(t, core.CategoryFood, march.Categories[0].Category)
	assert.Equal(t, core.CategoryTravel, march.Categories[1].Category)
}

func TestYearlySummary(t *testing.T) {
	r := sampleReader()
	e := NewEngine(r)

	summary, err := e.YearlySummary(context.Background(), "u1", 2024)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, 2, summary[0].Month)
	assert.Equal(t, int64(8000), summary[0].Total.Cents)
	assert.Equal(t, 3, summary[1].Month)
	assert.Equal(t, 2024, summary[1].Year)

	empty, err := e.YearlySummary(context.Background(), "u1", 2019)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTopCategories(t *testing.T) {
	r := sampleReader()
	e := NewEngine(r)

	top, err := e.TopCategories(context.Background(), "u1", 2, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.CategoryFood, top[0].Category)
	assert.Equal(t, int64(38000), top[0].Total.Cents)
	assert.Equal(t, int64(19000), top[0].AvgExpense.Cents)
	assert.Equal(t, core.CategoryTravel, top[1].Category)

	none, err := e.TopCategories(context.Background(), "u1", 0, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSummary(t *testing.T) {
	e := NewEngine(&memReader{expenses: []core.Expense{
		exp(1000, core.CategoryFood, day(2024, 3, 1)),
		exp(2000, core.CategoryFood, day(2024, 3, 2)),
		exp(3000, core.CategoryTravel, day(2024, 3, 3)),
	}})
	s, err := e.Summary(context.Background(), "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(6000), s.TotalExpenses.Cents)
	assert.Equal(t, 3, s.ExpenseCount)
	assert.Equal(t, int64(2000), s.AvgExpense.Cents)
	assert.Equal(t, int64(3000), s.MaxExpense.Cents)
	assert.Equal(t, int64(1000), s.MinExpense.Cents)

	empty, err := NewEngine(&memReader{}).Summary(context.Background(), "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, empty.ExpenseCount)
	assert.Zero(t, empty.AvgExpense.Cents)
}

func TestMonthTotalCountsEveryCategory(t *testing.T) {
	r := sampleReader()
	total, count, err := NewEngine(r).MonthTotal(context.Background(), "u1", day(2024, 3, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(40000), total.Cents)
	assert.Equal(t, 2, count)
}

func TestEngineWrapsReaderErrors(t *testing.T) {
	boom := errors.New("db gone")
	e := NewEngine(&memReader{err: boom})
	_, err := e.CategoryTotals(context.Background(), "u1", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, boom)
	_, err = e.MonthlyTrend(context.Background(), "u1", 3)
	assert.ErrorIs(t, err, boom)
}
