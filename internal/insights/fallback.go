package insights

import (
	"fmt"
	"strings"

	"finsight/internal/core"

	"github.com/shopspring/decimal"
)

// The fallbacks below are pure functions of their snapshot. Identical input
// always yields identical text.

var stableThreshold = decimal.NewFromInt(10)

func spendingFallback(s SpendingSnapshot) string {
	var b strings.Builder

	b.WriteString("## Spending Pattern Analysis\n\n")
	if len(s.Raw.CategoryTotals) > 0 {
		top := s.Raw.CategoryTotals[0]
		fmt.Fprintf(&b, "- Your highest spending category is %s with %s (%d%% of %s spent this month)\n",
			top.Category, top.Total, s.TopCategoryPercentage, s.TotalSpent)
		if s.SecondCategory != noCategory {
			fmt.Fprintf(&b, "- %s is your second largest category\n", s.SecondCategory)
		}
		fmt.Fprintf(&b, "- You have expenses across %d different categories\n", len(s.Raw.CategoryTotals))
	} else {
		fmt.Fprintf(&b, "- No expenses recorded for %s yet\n", s.Month)
	}

	b.WriteString("\n## Budget Performance\n\n")
	if len(s.Raw.BudgetStatus) == 0 {
		b.WriteString("- No budgets are set for this month\n")
	} else {
		var overspent []core.BudgetStatus
		for _, st := range s.Raw.BudgetStatus {
			if st.IsOverspent {
				overspent = append(overspent, st)
			}
		}
		if len(overspent) > 0 {
			fmt.Fprintf(&b, "- You have exceeded the budget in %d %s\n", len(overspent), plural(len(overspent), "category", "categories"))
			for _, st := range overspent {
				fmt.Fprintf(&b, "  - %s: %s / %s\n", st.Category, st.Actual, st.MonthlyLimit)
			}
		} else {
			b.WriteString("- You are staying within budget across all categories\n")
		}
		if s.OverspentAmount.Cents > 0 {
			fmt.Fprintf(&b, "- Total spending is %s over the combined budget of %s\n", s.OverspentAmount, s.Budget)
		} else {
			fmt.Fprintf(&b, "- %s of the combined budget of %s remains\n", s.RemainingAmount, s.Budget)
		}
	}

	b.WriteString("\n## Optimization Suggestions\n\n")
	suggestions := []string{
		"Track daily expenses to identify unnecessary spending patterns",
		"Set spending alerts for your top expense categories",
		"Review and adjust budgets based on actual spending patterns",
	}
	if s.TopCategory != noCategory {
		suggestions[1] = fmt.Sprintf("Set a spending alert for %s, your largest category", s.TopCategory)
	}
	for i, line := range suggestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}

	b.WriteString("\n## Future Predictions\n\n")
	b.WriteString(trendLine(s.Raw.MonthlyTrend))
	return b.String()
}

func trendLine(trend []core.MonthTotal) string {
	if len(trend) < 2 {
		return "- Not enough monthly history to spot a trend yet\n"
	}
	last, prev := trend[len(trend)-1], trend[len(trend)-2]
	if prev.Total.Cents <= 0 {
		return "- Your spending has been relatively stable. Maintain this consistency.\n"
	}
	change := last.Total.Decimal().Sub(prev.Total.Decimal()).
		Div(prev.Total.Decimal()).
		Mul(decimal.NewFromInt(100))
	switch {
	case change.GreaterThan(stableThreshold):
		return fmt.Sprintf("- Your spending increased by %s%% in %s. Monitor closely to avoid overspending.\n",
			change.Round(0).String(), last.MonthName)
	case change.LessThan(stableThreshold.Neg()):
		return fmt.Sprintf("- Great job! Your spending decreased by %s%% in %s.\n",
			change.Abs().Round(0).String(), last.MonthName)
	default:
		return "- Your spending has been relatively stable. Maintain this consistency.\n"
	}
}

var categoryTips = map[core.Category]string{
	core.CategoryFood:          "**Meal Planning**: Prepare weekly meal plans to reduce impulsive food purchases",
	core.CategoryTravel:        "**Transportation**: Consider carpooling or public transport to cut travel costs",
	core.CategoryRent:          "**Housing**: Compare your rent with similar listings before the next renewal",
	core.CategoryShopping:      "**Shopping**: Use the 24-hour rule before making non-essential purchases",
	core.CategoryEntertainment: "**Subscriptions**: Review and cancel unused subscriptions and memberships",
	core.CategoryHealthcare:    "**Healthcare**: Check whether generic medicines or insurance cover apply to recurring costs",
	core.CategoryBills:         "**Energy**: Reduce utility bills by being mindful of electricity and water usage",
	core.CategoryEducation:     "**Learning**: Look for free or discounted courses before paying full price",
	core.CategoryOthers:        "**Miscellaneous**: Give small uncategorized purchases a weekly cap",
}

var genericTips = []string{
	"**Tracking**: Log every expense the day it happens so nothing slips through",
	"**Buffer**: Keep 10% of each budget unallocated for surprises",
	"**Review**: Compare spending with budgets at mid-month and adjust early",
	"**Automation**: Move savings out on payday before discretionary spending starts",
	"**Cash Limits**: Use a fixed weekly allowance for variable categories",
}

// tipsFallback picks tips for the user's largest categories first and fills
// the rest from a generic list.
func tipsFallback(s TipsSnapshot) string {
	var tips []string
	seen := make(map[string]bool)
	add := func(tip string) {
		if tip != "" && len(tips) < 5 && !seen[tip] {
			seen[tip] = true
			tips = append(tips, tip)
		}
	}
	for _, st := range s.BudgetStatus {
		if st.IsOverspent {
			add(categoryTips[st.Category])
		}
	}
	for _, t := range s.CategoryTotals {
		add(categoryTips[t.Category])
	}
	for _, tip := range genericTips {
		add(tip)
	}

	var b strings.Builder
	b.WriteString("## Personalized Saving Tips\n\n")
	for i, tip := range tips {
		fmt.Fprintf(&b, "%d. %s\n", i+1, tip)
	}
	return b.String()
}

// riskFallback projects month-to-date spending linearly to the end of the
// month and grades each budget against that projection.
func riskFallback(s RiskSnapshot) string {
	var overspent, atRisk []string
	for _, st := range s.Budgets {
		switch {
		case st.IsOverspent:
			overspent = append(overspent, string(st.Category))
		case project(st.Actual, s).Cents > st.MonthlyLimit.Cents:
			atRisk = append(atRisk, string(st.Category))
		}
	}

	level := "Low"
	switch {
	case len(overspent) > 0:
		level = "High"
	case len(atRisk) > 0:
		level = "Medium"
	}

	var spent core.Money
	for _, t := range s.CurrentSpending {
		spent = spent.Add(t.Total)
	}

	var b strings.Builder
	b.WriteString("## Overspending Risk Prediction\n\n")
	fmt.Fprintf(&b, "**Risk Level**: %s\n\n", level)
	b.WriteString("**Analysis**:\n")
	fmt.Fprintf(&b, "- %s spent in the first %d of %d days of %s, on pace for %s\n",
		spent, s.DayOfMonth, s.DaysInMonth, s.Month, project(spent, s))
	if avg, ok := previousAverage(s); ok {
		fmt.Fprintf(&b, "- Your average over the previous months is %s\n", avg)
	}
	if len(overspent) > 0 {
		fmt.Fprintf(&b, "- Already over budget: %s\n", strings.Join(overspent, ", "))
	}
	if len(atRisk) > 0 {
		fmt.Fprintf(&b, "- Likely to exceed budget at the current pace: %s\n", strings.Join(atRisk, ", "))
	}
	if len(s.Budgets) == 0 {
		b.WriteString("- No budgets are set for this month, so risk is judged on pace alone\n")
	}
	b.WriteString("\n**Recommended Actions**:\n")
	b.WriteString("1. Set weekly spending limits for high-expense categories\n")
	b.WriteString("2. Review expenses mid-month to stay on track\n")
	b.WriteString("3. Build an emergency buffer of 10% in your budget\n")
	return b.String()
}

func project(actual core.Money, s RiskSnapshot) core.Money {
	if s.DayOfMonth <= 0 || s.DaysInMonth <= 0 {
		return actual
	}
	return core.MoneyFromDecimal(actual.Decimal().
		Mul(decimal.NewFromInt(int64(s.DaysInMonth))).
		Div(decimal.NewFromInt(int64(s.DayOfMonth))))
}

// previousAverage averages the trend months other than the snapshot's own.
func previousAverage(s RiskSnapshot) (core.Money, bool) {
	var total core.Money
	n := 0
	for _, m := range s.MonthlyTrend {
		if fmt.Sprintf("%04d-%02d", m.Year, m.Month) == s.Month {
			continue
		}
		total = total.Add(m.Total)
		n++
	}
	if n == 0 {
		return core.Money{}, false
	}
	return total.Average(n), true
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
