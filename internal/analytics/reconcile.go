package analytics

import (
	"sort"

	"finsight/internal/core"
)

// Report is the reconciliation of one month's budgets against its spending.
type Report struct {
	Month    string              `json:"month"`
	Statuses []core.BudgetStatus `json:"budgets"`

	TotalMonthlyBudget core.Money `json:"totalMonthlyBudget"`
	// TotalSpent only counts categories that carry a budget.
	TotalSpent      core.Money `json:"totalSpent"`
	OverspentAmount core.Money `json:"overspentAmount"`
	RemainingAmount core.Money `json:"remainingAmount"`
}

// BudgetUsage is the budget rollup shown on the dashboard.
type BudgetUsage struct {
	TotalBudget          core.Money `json:"totalBudget"`
	BudgetUsed           core.Money `json:"budgetUsed"`
	BudgetRemaining      core.Money `json:"budgetRemaining"`
	BudgetPercentageUsed int        `json:"budgetPercentageUsed"`
}

// Status compares a single budget with what was actually spent.
func Status(b core.Budget, actual core.Money) core.BudgetStatus {
	return core.BudgetStatus{
		BudgetID:       b.ID,
		Category:       b.Category,
		Month:          b.Month,
		MonthlyLimit:   b.MonthlyLimit,
		Actual:         actual,
		Remaining:      b.MonthlyLimit.Sub(actual),
		PercentageUsed: core.Percent(actual, b.MonthlyLimit),
		IsOverspent:    actual.Cents > b.MonthlyLimit.Cents,
	}
}

// Reconcile produces one status per budget, in budget order. Spending in
// categories without a budget does not appear, and a budget without spending
// reports an actual of zero.
func Reconcile(month string, budgets []core.Budget, totals []core.CategoryTotal) Report {
	spent := make(map[core.Category]core.Money, len(totals))
	for _, t := range totals {
		spent[t.Category] = spent[t.Category].Add(t.Total)
	}

	r := Report{Month: month, Statuses: make([]core.BudgetStatus, 0, len(budgets))}
	for _, b := range budgets {
		actual := spent[b.Category]
		r.Statuses = append(r.Statuses, Status(b, actual))
		r.TotalMonthlyBudget = r.TotalMonthlyBudget.Add(b.MonthlyLimit)
		r.TotalSpent = r.TotalSpent.Add(actual)
	}

	r.OverspentAmount, r.RemainingAmount = r.Balance(r.TotalSpent)
	return r
}

// Balance weighs spent against the total budget. At most one of the results
// is non-zero. Callers that count unbudgeted spending pass their own total.
func (r Report) Balance(spent core.Money) (overspent, remaining core.Money) {
	diff := spent.Sub(r.TotalMonthlyBudget)
	if diff.Cents > 0 {
		return diff, core.Money{}
	}
	return core.Money{}, core.Money{Cents: -diff.Cents}
}

// Overspending keeps the overspent statuses, largest overspend first.
func Overspending(statuses []core.BudgetStatus) []core.OverspentBudget {
	out := make([]core.OverspentBudget, 0)
	for _, s := range statuses {
		if !s.IsOverspent {
			continue
		}
		over := core.OverspentBudget{
			BudgetStatus: s,
			Overspent:    s.Actual.Sub(s.MonthlyLimit),
		}
		if s.MonthlyLimit.Cents > 0 {
			over.PercentageOver = core.Percent(s.Actual, s.MonthlyLimit) - 100
		}
		out = append(out, over)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Overspent.Cents > out[j].Overspent.Cents
	})
	return out
}

// Usage summarizes the report for the dashboard.
func (r Report) Usage() BudgetUsage {
	return BudgetUsage{
		TotalBudget:          r.TotalMonthlyBudget,
		BudgetUsed:           r.TotalSpent,
		BudgetRemaining:      r.TotalMonthlyBudget.Sub(r.TotalSpent),
		BudgetPercentageUsed: core.Percent(r.TotalSpent, r.TotalMonthlyBudget),
	}
}
