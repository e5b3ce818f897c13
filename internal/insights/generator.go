package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Prompt is what gets sent to a text generation service.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// TextGenerator produces text for a prompt. Implementations may fail in any
// way; the Generator never lets those failures reach its callers.
type TextGenerator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Output is generated text plus whether it came from the rule-based fallback.
type Output struct {
	Text     string
	Fallback bool
}

var errEmptyResponse = errors.New("empty response")

type Generator struct {
	client  TextGenerator
	timeout time.Duration
}

// NewGenerator wires a text generation client. A nil client is valid and
// means every call takes the fallback path.
func NewGenerator(client TextGenerator, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Generator{client: client, timeout: timeout}
}

const spendingSystemPrompt = `You are a financial assistant integrated into an expense tracking application.

You will receive structured expense analysis data calculated by the backend.
Your task is to generate clear, concise, and user-friendly financial insights.
Do NOT perform calculations. Only explain and recommend based on the data provided.`

func (g *Generator) SpendingInsights(ctx context.Context, s SpendingSnapshot) Output {
	user := fmt.Sprintf(`User Expense Summary:
- Monthly Budget: %s
- Total Spent This Month: %s
- Overspent Amount: %s
- Remaining Amount: %s
- Top Spending Category: %s
- Percentage Spent on Top Category: %d%%
- Second Highest Category (if any): %s

Instructions:
1. Clearly mention if the user has exceeded the budget.
2. Identify the main reason for overspending using category data.
3. Give 1-2 practical, realistic recommendations.
4. Keep the tone supportive and simple.
5. Limit the response to 4-6 sentences.
6. Do NOT use emojis.
7. Do NOT include headings.

Generate the AI insight text now.`,
		s.Budget, s.TotalSpent, s.OverspentAmount, s.RemainingAmount,
		s.TopCategory, s.TopCategoryPercentage, s.SecondCategory)

	return g.run(ctx, "spending_insights", Prompt{
		System:      spendingSystemPrompt,
		User:        user,
		Temperature: 0.7,
		MaxTokens:   300,
	}, func() string { return spendingFallback(s) })
}

func (g *Generator) SavingTips(ctx context.Context, s TipsSnapshot) Output {
	user := fmt.Sprintf(`Based on the following spending data, provide 5 personalized money-saving tips:

Category Spending: %s
Budget Status: %s

Requirements:
- Tips should be specific to the categories where user spends most
- Be practical and actionable
- Keep each tip to 1-2 sentences
- Format as a numbered list`, indentJSON(s.CategoryTotals), indentJSON(s.BudgetStatus))

	return g.run(ctx, "saving_tips", Prompt{
		System:      "You are a financial advisor providing practical saving tips.",
		User:        user,
		Temperature: 0.8,
		MaxTokens:   500,
	}, func() string { return tipsFallback(s) })
}

func (g *Generator) PredictRisk(ctx context.Context, s RiskSnapshot) Output {
	user := fmt.Sprintf(`Analyze spending trends and predict overspending risk:

Monthly Trend: %s
Current Month Spending (day %d of %d): %s
Budgets: %s

Provide:
1. Overall risk level (Low/Medium/High)
2. Categories at risk
3. Specific warning signs you notice
4. Recommended preventive actions

Keep response concise and clear.`,
		indentJSON(s.MonthlyTrend), s.DayOfMonth, s.DaysInMonth,
		indentJSON(s.CurrentSpending), indentJSON(s.Budgets))

	return g.run(ctx, "predict_risk", Prompt{
		System:      "You are a financial risk analyst predicting spending risks.",
		User:        user,
		Temperature: 0.6,
		MaxTokens:   400,
	}, func() string { return riskFallback(s) })
}

func (g *Generator) run(ctx context.Context, kind string, p Prompt, fallback func() string) Output {
	if g.client == nil {
		return Output{Text: Truncate(fallback()), Fallback: true}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.client.Generate(callCtx, p)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyResponse
	}
	if err != nil {
		slog.WarnContext(ctx, "Text generation failed, using fallback", "kind", kind, "error", err)
		return Output{Text: Truncate(fallback()), Fallback: true}
	}
	return Output{Text: Truncate(strings.TrimSpace(text))}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
