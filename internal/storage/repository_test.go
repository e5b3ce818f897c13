package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finsight/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func addUser(t *testing.T, repo *SQLiteRepository, id, email string) {
	t.Helper()
	_, err := repo.CreateUser(context.Background(), core.User{ID: id, Name: "User " + id, Email: email, PasswordHash: "x"})
	require.NoError(t, err)
}

func at(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 10, 0, 0, 0, time.UTC)
}

func addExpense(t *testing.T, repo *SQLiteRepository, id, user string, cents int64, c core.Category, date time.Time) {
	t.Helper()
	_, err := repo.CreateExpense(context.Background(), core.Expense{
		ID: id, UserID: user, Amount: core.Money{Cents: cents}, Category: c, Description: "desc " + id, Date: date,
	})
	require.NoError(t, err)
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	addUser(t, repo, "u1", " Ada@Example.COM ")

	u, err := repo.UserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = repo.CreateUser(ctx, core.User{ID: "u2", Name: "Dup", Email: "ADA@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, core.ErrConflict)

	require.NoError(t, repo.SetRefreshTokenHash(ctx, "u1", "digest"))
	u, err = repo.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "digest", u.RefreshTokenHash)

	_, err = repo.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.SetRefreshTokenHash(ctx, "missing", ""), core.ErrNotFound)
}

func TestExpenses_CRUDIsScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	addUser(t, repo, "u1", "a@example.com")
	addUser(t, repo, "u2", "b@example.com")
	addExpense(t, repo, "e1", "u1", 1250, core.CategoryFood, at(3, 1))

	got, err := repo.GetExpense(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), got.Amount.Cents)
	assert.Equal(t, at(3, 1), got.Date)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetExpense(ctx, "u2", "e1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	got.Amount = core.Money{Cents: 999}
	got.Category = core.CategoryBills
	updated, err := repo.UpdateExpense(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryBills, updated.Category)
	assert.Equal(t, int64(999), updated.Amount.Cents)

	foreign := got
	foreign.UserID = "u2"
	_, err = repo.UpdateExpense(ctx, foreign)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteExpense(ctx, "u2", "e1"), core.ErrNotFound)
	require.NoError(t, repo.DeleteExpense(ctx, "u1", "e1"))
	assert.ErrorIs(t, repo.DeleteExpense(ctx, "u1", "e1"), core.ErrNotFound)

	byID, err := repo.GetExpenseByID(ctx, "e1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, byID.ID)
}

func TestListExpenses_FilterAndPaginate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	addUser(t, repo, "u1", "a@example.com")
	addUser(t, repo, "u2", "b@example.com")
	addExpense(t, repo, "e1", "u1", 100, core.CategoryFood, at(3, 1))
	addExpense(t, repo, "e2", "u1", 200, core.CategoryTravel, at(3, 5))
	addExpense(t, repo, "e3", "u1", 300, core.CategoryFood, at(3, 9))
	addExpense(t, repo, "e4", "u1", 400, core.CategoryFood, at(2, 20))
	addExpense(t, repo, "e5", "u2", 500, core.CategoryFood, at(3, 2))

	all, total, err := repo.ListExpenses(ctx, "u1", ExpenseFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"e3", "e2", "e1", "e4"}, ids(all), "newest date first")

	page, total, err := repo.ListExpenses(ctx, "u1", ExpenseFilter{Limit: 2, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, total, "total ignores pagination")
	assert.Equal(t, []string{"e2", "e1"}, ids(page))

	food, total, err := repo.ListExpenses(ctx, "u1", ExpenseFilter{
		Category: core.CategoryFood,
		Start:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      at(3, 9),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"e3", "e1"}, ids(food), "both bounds are inclusive")

	inRange, err := repo.ListExpensesInRange(ctx, "u1", time.Time{}, at(3, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2", "e4"}, ids(inRange), "insertion order")

	none, err := repo.ListExpensesInRange(ctx, "nobody", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func ids(list []core.Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestExpenses_RejectsNonPositiveAmount(t *testing.T) {
	repo := newTestRepo(t)
	addUser(t, repo, "u1", "a@example.com")
	_, err := repo.CreateExpense(context.Background(), core.Expense{
		ID: "e0", UserID: "u1", Category: core.CategoryFood, Description: "free", Date: at(3, 1),
	})
	assert.Error(t, err)
}

func TestExpenses_RejectsDatesOutsideStorableRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	addUser(t, repo, "u1", "a@example.com")

	for _, d := range []time.Time{
		time.Date(2300, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(1600, 1, 15, 0, 0, 0, 0, time.UTC),
	} {
		_, err := repo.CreateExpense(ctx, core.Expense{
			ID: "far", UserID: "u1", Amount: core.Money{Cents: 100}, Category: core.CategoryFood, Description: "far", Date: d,
		})
		assert.ErrorIs(t, err, core.ErrValidation, d.String())
	}
	_, err := repo.GetExpense(ctx, "u1", "far")
	assert.ErrorIs(t, err, core.ErrNotFound)

	edge := time.Date(2199, 12, 31, 12, 0, 0, 0, time.UTC)
	addExpense(t, repo, "edge", "u1", 100, core.CategoryFood, edge)
	got, err := repo.GetExpense(ctx, "u1", "edge")
	require.NoError(t, err)
	assert.Equal(t, edge, got.Date)

	got.Date = time.Date(2263, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = repo.UpdateExpense(ctx, got)
	assert.ErrorIs(t, err, core.ErrValidation)
	got, err = repo.GetExpense(ctx, "u1", "edge")
	require.NoError(t, err)
	assert.Equal(t, edge, got.Date)
}

func TestBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	addUser(t, repo, "u1", "a@example.com")

	create := func(id string, c core.Category, month string) error {
		_, err := repo.CreateBudget(ctx, core.Budget{ID: id, UserID: "u1", Category: c, MonthlyLimit: core.Money{Cents: 10000}, Month: month})
		return err
	}
	require.NoError(t, create("b1", core.CategoryTravel, "2024-03"))
	require.NoError(t, create("b2", core.CategoryFood, "2024-03"))
	require.NoError(t, create("b3", core.CategoryFood, "2024-02"))
	assert.ErrorIs(t, create("b4", core.CategoryFood, "2024-03"), core.ErrConflict)

	march, err := repo.ListBudgets(ctx, "u1", "2024-03")
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, core.CategoryFood, march[0].Category)

	all, err := repo.ListBudgets(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-02", all[2].Month)

	found, err := repo.FindBudget(ctx, "u1", core.CategoryTravel, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "b1", found.ID)
	_, err = repo.FindBudget(ctx, "u1", core.CategoryTravel, "2024-02")
	assert.ErrorIs(t, err, core.ErrNotFound)

	updated, err := repo.UpdateBudgetLimit(ctx, "u1", "b1", core.Money{Cents: 0})
	require.NoError(t, err)
	assert.Zero(t, updated.MonthlyLimit.Cents)
	_, err = repo.UpdateBudgetLimit(ctx, "u2", "b1", core.Money{Cents: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.DeleteBudget(ctx, "u1", "b1"))
	_, err = repo.GetBudget(ctx, "u1", "b1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInsights(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	addUser(t, repo, "u1", "a@example.com")

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	put := func(id string, kind core.InsightType, created time.Time, ttl time.Duration) {
		require.NoError(t, repo.CreateInsight(ctx, core.Insight{
			ID: id, UserID: "u1", Type: kind, Response: "text " + id, CreatedAt: created, ExpiresAt: created.Add(ttl),
		}))
	}
	put("i1", core.InsightPrediction, now.Add(-2*time.Hour), 6*time.Hour)
	put("i2", core.InsightPrediction, now.Add(-time.Hour), 6*time.Hour)
	put("i3", core.InsightPrediction, now.Add(-8*time.Hour), 6*time.Hour)
	put("i4", core.InsightGeneral, now.Add(-3*time.Hour), 24*time.Hour)

	latest, err := repo.LatestInsight(ctx, "u1", core.InsightPrediction, now.Add(-6*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, "i2", latest.ID)
	assert.JSONEq(t, `{}`, string(latest.DataSnapshot))

	_, err = repo.LatestInsight(ctx, "u1", core.InsightPrediction, now.Add(-30*time.Minute), now)
	assert.ErrorIs(t, err, core.ErrNotFound)

	active, err := repo.ListActiveInsights(ctx, "u1", now, 10)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	assert.Equal(t, "i2", active[0].ID)

	limited, err := repo.ListActiveInsights(ctx, "u1", now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := repo.PurgeExpiredInsights(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPing(t *testing.T) {
	assert.NoError(t, newTestRepo(t).Ping(context.Background()))
}
