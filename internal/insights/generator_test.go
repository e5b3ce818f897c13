package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"finsight/internal/analytics"
	"finsight/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text   string
	err    error
	block  bool
	prompt Prompt
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	s.calls++
	s.prompt = p
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func sampleSpending() SpendingSnapshot {
	totals := []core.CategoryTotal{
		{Category: core.CategoryFood, Total: money(30000), Count: 1},
		{Category: core.CategoryTravel, Total: money(10000), Count: 1},
	}
	budgets := []core.Budget{{ID: "b1", Category: core.CategoryFood, MonthlyLimit: money(25000), Month: "2024-03"}}
	trend := []core.MonthTotal{
		{Year: 2024, Month: 2, MonthName: "Feb", Total: money(8000)},
		{Year: 2024, Month: 3, MonthName: "Mar", Total: money(40000)},
	}
	return NewSpendingSnapshot("2024-03", totals, trend, nil, analytics.Reconcile("2024-03", budgets, totals))
}

func TestNewSpendingSnapshot(t *testing.T) {
	s := sampleSpending()
	assert.Equal(t, int64(25000), s.Budget.Cents)
	assert.Equal(t, int64(40000), s.TotalSpent.Cents, "every category counts toward total spent")
	assert.Equal(t, int64(15000), s.OverspentAmount.Cents)
	assert.Zero(t, s.RemainingAmount.Cents)
	assert.Equal(t, "Food", s.TopCategory)
	assert.Equal(t, 75, s.TopCategoryPercentage)
	assert.Equal(t, "Travel", s.SecondCategory)

	empty := NewSpendingSnapshot("2024-03", nil, nil, nil, analytics.Reconcile("2024-03", nil, nil))
	assert.Equal(t, "None", empty.TopCategory)
	assert.Equal(t, "None", empty.SecondCategory)
	assert.Zero(t, empty.TopCategoryPercentage)
}

func TestNewRiskSnapshot(t *testing.T) {
	s := NewRiskSnapshot(time.Date(2024, 2, 10, 23, 0, 0, 0, time.UTC), nil, nil, nil)
	assert.Equal(t, "2024-02", s.Month)
	assert.Equal(t, 10, s.DayOfMonth)
	assert.Equal(t, 29, s.DaysInMonth)
}

func TestGenerator_NilClientFallsBack(t *testing.T) {
	g := NewGenerator(nil, time.Second)
	out := g.SpendingInsights(context.Background(), sampleSpending())
	assert.True(t, out.Fallback)
	assert.Contains(t, out.Text, "## Spending Pattern Analysis")
	assert.Contains(t, out.Text, "Food")
	assert.Contains(t, out.Text, "increased by 400% in Mar")
}

func TestGenerator_UsesClientText(t *testing.T) {
	stub := &stubGenerator{text: "  You went over on food.  "}
	g := NewGenerator(stub, time.Second)

	out := g.SpendingInsights(context.Background(), sampleSpending())
	assert.False(t, out.Fallback)
	assert.Equal(t, "You went over on food.", out.Text)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, spendingSystemPrompt, stub.prompt.System)
	assert.Equal(t, float32(0.7), stub.prompt.Temperature)
	assert.Equal(t, 300, stub.prompt.MaxTokens)
	assert.Contains(t, stub.prompt.User, "Monthly Budget: 250.00")
	assert.Contains(t, stub.prompt.User, "Top Spending Category: Food")
}

func TestGenerator_FailuresFallBack(t *testing.T) {
	tests := []struct {
		name string
		stub *stubGenerator
	}{
		{"error", &stubGenerator{err: errors.New("quota exceeded")}},
		{"empty", &stubGenerator{text: " \n "}},
		{"timeout", &stubGenerator{block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.stub, 20*time.Millisecond)
			out := g.SavingTips(context.Background(), TipsSnapshot{Month: "2024-03"})
			assert.True(t, out.Fallback)
			assert.Contains(t, out.Text, "## Personalized Saving Tips")
		})
	}
}

func TestGenerator_TruncatesClientText(t *testing.T) {
	g := NewGenerator(&stubGenerator{text: strings.Repeat("x", core.MaxInsightResponseLength*2)}, time.Second)
	out := g.PredictRisk(context.Background(), RiskSnapshot{Month: "2024-03", DayOfMonth: 1, DaysInMonth: 31})
	assert.False(t, out.Fallback)
	assert.Equal(t, core.MaxInsightResponseLength, utf8.RuneCountInString(out.Text))
}

func TestFallbackIsDeterministic(t *testing.T) {
	totals := []core.CategoryTotal{
		{Category: core.CategoryFood, Total: money(30000), Count: 4},
		{Category: core.CategoryEntertainment, Total: money(9000), Count: 2},
		{Category: core.CategoryTravel, Total: money(9000), Count: 1},
	}
	statuses := []core.BudgetStatus{
		{Category: core.CategoryFood, MonthlyLimit: money(25000), Actual: money(30000), IsOverspent: true},
		{Category: core.CategoryEntertainment, MonthlyLimit: money(12000), Actual: money(9000)},
	}
	trend := []core.MonthTotal{
		{Year: 2024, Month: 1, MonthName: "Jan", Total: money(20000)},
		{Year: 2024, Month: 2, MonthName: "Feb", Total: money(8000)},
		{Year: 2024, Month: 3, MonthName: "Mar", Total: money(48000)},
	}
	underBudget := []core.Budget{{ID: "b1", Category: core.CategoryFood, MonthlyLimit: money(90000), Month: "2024-03"}}

	tests := []struct {
		name string
		run  func(g *Generator) Output
	}{
		{"spending overspent with trend", func(g *Generator) Output {
			return g.SpendingInsights(context.Background(), sampleSpending())
		}},
		{"spending under budget", func(g *Generator) Output {
			return g.SpendingInsights(context.Background(),
				NewSpendingSnapshot("2024-03", totals, trend, nil, analytics.Reconcile("2024-03", underBudget, totals)))
		}},
		{"spending empty", func(g *Generator) Output {
			return g.SpendingInsights(context.Background(),
				NewSpendingSnapshot("2024-03", nil, nil, nil, analytics.Reconcile("2024-03", nil, nil)))
		}},
		{"tips", func(g *Generator) Output {
			return g.SavingTips(context.Background(), TipsSnapshot{Month: "2024-03", CategoryTotals: totals, BudgetStatus: statuses})
		}},
		{"tips empty", func(g *Generator) Output {
			return g.SavingTips(context.Background(), TipsSnapshot{Month: "2024-03"})
		}},
		{"risk", func(g *Generator) Output {
			return g.PredictRisk(context.Background(), NewRiskSnapshot(time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), trend, totals, statuses))
		}},
		{"risk empty", func(g *Generator) Output {
			return g.PredictRisk(context.Background(), NewRiskSnapshot(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil, nil, nil))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := tt.run(NewGenerator(nil, time.Second))
			second := tt.run(NewGenerator(nil, time.Second))
			require.True(t, first.Fallback)
			require.True(t, second.Fallback)
			assert.NotEmpty(t, first.Text)
			assert.Equal(t, first.Text, second.Text)
		})
	}
}

func TestTipsFallback(t *testing.T) {
	s := TipsSnapshot{
		Month: "2024-03",
		CategoryTotals: []core.CategoryTotal{
			{Category: core.CategoryFood, Total: money(30000)},
			{Category: core.CategoryEntertainment, Total: money(9000)},
		},
		BudgetStatus: []core.BudgetStatus{
			{Category: core.CategoryEntertainment, IsOverspent: true},
		},
	}
	text := tipsFallback(s)
	assert.Equal(t, text, tipsFallback(s), "same input, same text")

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 7, "heading, blank line and five tips")
	assert.Contains(t, lines[2], "Subscriptions", "overspent categories come first")
	assert.Contains(t, lines[3], "Meal Planning")
	assert.True(t, strings.HasPrefix(lines[6], "5. "))
}

func TestRiskFallbackLevels(t *testing.T) {
	base := RiskSnapshot{Month: "2024-03", DayOfMonth: 10, DaysInMonth: 30}

	low := base
	low.Budgets = []core.BudgetStatus{{Category: core.CategoryFood, MonthlyLimit: money(50000), Actual: money(10000)}}
	assert.Contains(t, riskFallback(low), "**Risk Level**: Low")

	medium := base
	medium.Budgets = []core.BudgetStatus{{Category: core.CategoryFood, MonthlyLimit: money(50000), Actual: money(20000)}}
	text := riskFallback(medium)
	assert.Contains(t, text, "**Risk Level**: Medium")
	assert.Contains(t, text, "at the current pace: Food")

	high := base
	high.Budgets = []core.BudgetStatus{{Category: core.CategoryTravel, MonthlyLimit: money(100), Actual: money(200), IsOverspent: true}}
	assert.Contains(t, riskFallback(high), "**Risk Level**: High")
}

func TestRiskFallbackPace(t *testing.T) {
	s := RiskSnapshot{
		Month:           "2024-03",
		DayOfMonth:      10,
		DaysInMonth:     30,
		CurrentSpending: []core.CategoryTotal{{Category: core.CategoryFood, Total: money(10000)}},
		MonthlyTrend: []core.MonthTotal{
			{Year: 2024, Month: 1, Total: money(20000)},
			{Year: 2024, Month: 2, Total: money(40000)},
			{Year: 2024, Month: 3, Total: money(10000)},
		},
	}
	text := riskFallback(s)
	assert.Contains(t, text, "100.00 spent in the first 10 of 30 days of 2024-03, on pace for 300.00")
	assert.Contains(t, text, "average over the previous months is 300.00")
	assert.Contains(t, text, "No budgets are set")
}

func TestTrendLine(t *testing.T) {
	month := func(name string, cents int64) core.MonthTotal {
		return core.MonthTotal{MonthName: name, Total: money(cents)}
	}
	assert.Contains(t, trendLine(nil), "Not enough monthly history")
	assert.Contains(t, trendLine([]core.MonthTotal{month("Feb", 10000), month("Mar", 5000)}), "decreased by 50% in Mar")
	assert.Contains(t, trendLine([]core.MonthTotal{month("Feb", 10000), month("Mar", 10500)}), "relatively stable")
	assert.Contains(t, trendLine([]core.MonthTotal{month("Feb", 0), month("Mar", 10500)}), "relatively stable")
}
