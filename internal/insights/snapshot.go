package insights

import (
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"
)

const noCategory = "None"

// SpendingSnapshot is the input of a spending analysis. Its numbers are
// computed here so the text generator only has to explain them.
type SpendingSnapshot struct {
	Month                 string     `json:"month"`
	Budget                core.Money `json:"budget"`
	TotalSpent            core.Money `json:"totalSpent"`
	OverspentAmount       core.Money `json:"overspentAmount"`
	RemainingAmount       core.Money `json:"remainingAmount"`
	TopCategory           string     `json:"topCategory"`
	TopCategoryPercentage int        `json:"topCategoryPercentage"`
	SecondCategory        string     `json:"secondCategory"`
	Raw                   RawData    `json:"raw"`
}

type RawData struct {
	CategoryTotals []core.CategoryTotal `json:"categoryTotals"`
	MonthlyTrend   []core.MonthTotal    `json:"monthlyTrend"`
	BudgetStatus   []core.BudgetStatus  `json:"budgetStatus"`
	TopCategories  []core.TopCategory   `json:"topCategories"`
}

type TipsSnapshot struct {
	Month          string               `json:"month"`
	CategoryTotals []core.CategoryTotal `json:"categoryTotals"`
	BudgetStatus   []core.BudgetStatus  `json:"budgetStatus"`
}

// RiskSnapshot carries the month-to-date position together with how far into
// the month it was taken, so the pace of spending can be projected.
type RiskSnapshot struct {
	Month           string               `json:"month"`
	DayOfMonth      int                  `json:"dayOfMonth"`
	DaysInMonth     int                  `json:"daysInMonth"`
	MonthlyTrend    []core.MonthTotal    `json:"monthlyTrend"`
	CurrentSpending []core.CategoryTotal `json:"currentSpending"`
	Budgets         []core.BudgetStatus  `json:"budgets"`
}

// NewSpendingSnapshot derives the headline figures from the month's category
// totals. TotalSpent covers every category, budgeted or not.
func NewSpendingSnapshot(month string, totals []core.CategoryTotal, trend []core.MonthTotal, top []core.TopCategory, report analytics.Report) SpendingSnapshot {
	s := SpendingSnapshot{
		Month:          month,
		Budget:         report.TotalMonthlyBudget,
		TopCategory:    noCategory,
		SecondCategory: noCategory,
		Raw: RawData{
			CategoryTotals: totals,
			MonthlyTrend:   trend,
			BudgetStatus:   report.Statuses,
			TopCategories:  top,
		},
	}
	for _, t := range totals {
		s.TotalSpent = s.TotalSpent.Add(t.Total)
	}
	s.OverspentAmount, s.RemainingAmount = report.Balance(s.TotalSpent)

	// totals is already ordered by total, largest first.
	if len(totals) > 0 {
		s.TopCategory = string(totals[0].Category)
		s.TopCategoryPercentage = core.Percent(totals[0].Total, s.TotalSpent)
	}
	if len(totals) > 1 {
		s.SecondCategory = string(totals[1].Category)
	}
	return s
}

func NewRiskSnapshot(now time.Time, trend []core.MonthTotal, spending []core.CategoryTotal, statuses []core.BudgetStatus) RiskSnapshot {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return RiskSnapshot{
		Month:           core.MonthKey(now),
		DayOfMonth:      now.Day(),
		DaysInMonth:     first.AddDate(0, 1, -1).Day(),
		MonthlyTrend:    trend,
		CurrentSpending: spending,
		Budgets:         statuses,
	}
}
