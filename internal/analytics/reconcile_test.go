package analytics

import (
	"testing"

	"finsight/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budget(c core.Category, cents int64) core.Budget {
	return core.Budget{ID: string(c) + "-b", Category: c, MonthlyLimit: core.Money{Cents: cents}, Month: "2024-03"}
}

func TestReconcile(t *testing.T) {
	totals := []core.CategoryTotal{
		{Category: core.CategoryFood, Total: core.Money{Cents: 30000}, Count: 1},
		{Category: core.CategoryTravel, Total: core.Money{Cents: 10000}, Count: 1},
	}
	budgets := []core.Budget{budget(core.CategoryFood, 25000), budget(core.CategoryRent, 80000)}

	r := Reconcile("2024-03", budgets, totals)
	require.Len(t, r.Statuses, 2)

	food := r.Statuses[0]
	assert.Equal(t, core.CategoryFood, food.Category)
	assert.Equal(t, int64(30000), food.Actual.Cents)
	assert.Equal(t, int64(-5000), food.Remaining.Cents)
	assert.Equal(t, 120, food.PercentageUsed)
	assert.True(t, food.IsOverspent)

	rent := r.Statuses[1]
	assert.Zero(t, rent.Actual.Cents, "budget without spending reports zero")
	assert.Equal(t, int64(80000), rent.Remaining.Cents)
	assert.False(t, rent.IsOverspent)

	assert.Equal(t, int64(105000), r.TotalMonthlyBudget.Cents)
	assert.Equal(t, int64(30000), r.TotalSpent.Cents, "travel has no budget and is left out")
	assert.Equal(t, int64(75000), r.RemainingAmount.Cents)
	assert.Zero(t, r.OverspentAmount.Cents)
}

func TestReconcileOverall(t *testing.T) {
	r := Reconcile("2024-03",
		[]core.Budget{budget(core.CategoryFood, 10000)},
		[]core.CategoryTotal{{Category: core.CategoryFood, Total: core.Money{Cents: 12500}}})
	assert.Equal(t, int64(2500), r.OverspentAmount.Cents)
	assert.Zero(t, r.RemainingAmount.Cents)

	u := r.Usage()
	assert.Equal(t, int64(10000), u.TotalBudget.Cents)
	assert.Equal(t, int64(12500), u.BudgetUsed.Cents)
	assert.Equal(t, int64(-2500), u.BudgetRemaining.Cents)
	assert.Equal(t, 125, u.BudgetPercentageUsed)
}

func TestReportBalance(t *testing.T) {
	r := Reconcile("2024-03", []core.Budget{budget(core.CategoryFood, 25000)}, nil)
	tests := []struct {
		name      string
		spent     int64
		overspent int64
		remaining int64
	}{
		{"under", 10000, 0, 15000},
		{"exactly at budget", 25000, 0, 0},
		{"over", 40000, 15000, 0},
		{"nothing spent", 0, 0, 25000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			over, rem := r.Balance(core.Money{Cents: tt.spent})
			assert.Equal(t, tt.overspent, over.Cents)
			assert.Equal(t, tt.remaining, rem.Cents)
		})
	}
}

func TestReconcileNoBudgets(t *testing.T) {
	r := Reconcile("2024-03", nil, []core.CategoryTotal{{Category: core.CategoryFood, Total: core.Money{Cents: 100}}})
	assert.NotNil(t, r.Statuses)
	assert.Empty(t, r.Statuses)
	assert.Zero(t, r.Usage().BudgetPercentageUsed)
}

func TestStatusZeroLimit(t *testing.T) {
	s := Status(budget(core.CategoryBills, 0), core.Money{Cents: 500})
	assert.Zero(t, s.PercentageUsed)
	assert.True(t, s.IsOverspent)

	over := Overspending([]core.BudgetStatus{s})
	require.Len(t, over, 1)
	assert.Equal(t, int64(500), over[0].Overspent.Cents)
	assert.Zero(t, over[0].PercentageOver)
}

func TestStatusExactlyAtLimit(t *testing.T) {
	s := Status(budget(core.CategoryFood, 5000), core.Money{Cents: 5000})
	assert.Equal(t, 100, s.PercentageUsed)
	assert.False(t, s.IsOverspent)
	assert.Empty(t, Overspending([]core.BudgetStatus{s}))
}

func TestOverspendingOrder(t *testing.T) {
	statuses := []core.BudgetStatus{
		Status(budget(core.CategoryFood, 25000), core.Money{Cents: 30000}),
		Status(budget(core.CategoryTravel, 10000), core.Money{Cents: 9000}),
		Status(budget(core.CategoryShopping, 10000), core.Money{Cents: 20000}),
		Status(budget(core.CategoryBills, 1000), core.Money{Cents: 6000}),
	}
	over := Overspending(statuses)
	require.Len(t, over, 3)
	assert.Equal(t, core.CategoryShopping, over[0].Category)
	assert.Equal(t, int64(10000), over[0].Overspent.Cents)
	assert.Equal(t, 100, over[0].PercentageOver)
	assert.Equal(t, core.CategoryFood, over[1].Category, "equal overspend keeps budget order")
	assert.Equal(t, 20, over[1].PercentageOver)
	assert.Equal(t, core.CategoryBills, over[2].Category)
	assert.Equal(t, 500, over[2].PercentageOver)
}
