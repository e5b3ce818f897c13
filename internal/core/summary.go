package core

// CategoryTotal is the spending of one category within a window.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
	Count    int      `json:"count"`
}

// MonthTotal is the spending of one calendar month.
type MonthTotal struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"` // 1-12
	MonthName string `json:"monthName"`
	Total     Money  `json:"total"`
	Count     int    `json:"count"`
}

type CategoryAmount struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
}

// CategoryMonth breaks one calendar month down by category.
type CategoryMonth struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	MonthName  string           `json:"monthName"`
	Categories []CategoryAmount `json:"categories"`
	MonthTotal Money            `json:"monthTotal"`
}

type TopCategory struct {
	Category   Category `json:"category"`
	Total      Money    `json:"total"`
	Count      int      `json:"count"`
	AvgExpense Money    `json:"avgExpense"`
}

// ExpenseSummary holds simple statistics over a set of expenses.
type ExpenseSummary struct {
	TotalExpenses Money `json:"totalExpenses"`
	ExpenseCount  int   `json:"expenseCount"`
	AvgExpense    Money `json:"avgExpense"`
	MaxExpense    Money `json:"maxExpense"`
	MinExpense    Money `json:"minExpense"`
}

// BudgetStatus compares one budget with the actual spending of its category.
type BudgetStatus struct {
	BudgetID       string   `json:"budgetId,omitempty"`
	Category       Category `json:"category"`
	Month          string   `json:"month"`
	MonthlyLimit   Money    `json:"monthlyLimit"`
	Actual         Money    `json:"actual"`
	Remaining      Money    `json:"remaining"`
	PercentageUsed int      `json:"percentageUsed"`
	IsOverspent    bool     `json:"isOverspent"`
}

type OverspentBudget struct {
	BudgetStatus
	Overspent      Money `json:"overspent"`
	PercentageOver int   `json:"percentageOver"`
}
