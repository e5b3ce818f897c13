package insights

import (
	"context"
	"testing"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"
	"finsight/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *storage.SQLiteRepository, user string) {
	t.Helper()
	ctx := context.Background()
	expenses := []core.Expense{
		{ID: "e1", Amount: money(30000), Category: core.CategoryFood, Date: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "e2", Amount: money(10000), Category: core.CategoryTravel, Date: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
		{ID: "e3", Amount: money(8000), Category: core.CategoryFood, Date: time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)},
	}
	for _, e := range expenses {
		e.UserID, e.Description = user, "seeded"
		_, err := repo.CreateExpense(ctx, e)
		require.NoError(t, err)
	}
	_, err := repo.CreateBudget(ctx, core.Budget{
		ID: "b1", UserID: user, Category: core.CategoryFood, MonthlyLimit: money(25000), Month: "2024-03",
	})
	require.NoError(t, err)
}

func newTestService(t *testing.T, client TextGenerator) (*Service, *clock, string) {
	t.Helper()
	repo, user := newTestRepo(t)
	seed(t, repo, user)
	clk := newClock(t0)
	cache := NewCache(repo, DefaultPolicies(), clk.option())
	return NewService(analytics.NewEngine(repo), repo, cache, NewGenerator(client, time.Second)), clk, user
}

func TestService_GenerateInsightsCachesResult(t *testing.T) {
	svc, clk, user := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.GenerateInsights(ctx, user, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, first.Fallback)
	assert.Equal(t, t0, first.GeneratedAt)
	assert.Equal(t, DataUsed{CategoriesAnalyzed: 2, MonthsAnalyzed: 2, BudgetsTracked: 1}, first.DataUsed)
	assert.Contains(t, first.Text, "exceeded the budget in 1 category")

	clk.Advance(time.Hour)
	second, err := svc.GenerateInsights(ctx, user, false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, t0, second.GeneratedAt)

	forced, err := svc.GenerateInsights(ctx, user, true)
	require.NoError(t, err)
	assert.False(t, forced.Cached)
	assert.Equal(t, t0.Add(time.Hour), forced.GeneratedAt)

	list, err := svc.Cached(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_UsesClientWhenAvailable(t *testing.T) {
	stub := &stubGenerator{text: "Risk is high for Food."}
	svc, _, user := newTestService(t, stub)

	res, err := svc.PredictRisk(context.Background(), user, false)
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "Risk is high for Food.", res.Text)
	assert.Contains(t, stub.prompt.User, "day 15 of 31")

	again, err := svc.PredictRisk(context.Background(), user, false)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, 1, stub.calls, "cached result skips generation")
}

func TestService_SavingTipsExpireWithTheirPolicy(t *testing.T) {
	svc, clk, user := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.SavingTips(ctx, user, false)
	require.NoError(t, err)
	assert.Equal(t, DataUsed{CategoriesAnalyzed: 2, BudgetsTracked: 1}, res.DataUsed)

	clk.Advance(47 * time.Hour)
	res, err = svc.SavingTips(ctx, user, false)
	require.NoError(t, err)
	assert.True(t, res.Cached)

	clk.Advance(2 * time.Hour)
	res, err = svc.SavingTips(ctx, user, false)
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestService_EmptyAccount(t *testing.T) {
	repo, user := newTestRepo(t)
	cache := NewCache(repo, DefaultPolicies(), newClock(t0).option())
	svc := NewService(analytics.NewEngine(repo), repo, cache, NewGenerator(nil, time.Second))

	res, err := svc.GenerateInsights(context.Background(), user, false)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Contains(t, res.Text, "No expenses recorded for 2024-03")
	assert.Contains(t, res.Text, "No budgets are set")
	assert.Equal(t, DataUsed{}, res.DataUsed)
}
