package insights

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"

	"golang.org/x/sync/errgroup"
)

const (
	trendMonths      = 6
	topCategoryLimit = 5
	cachedListLimit  = 10
)

type BudgetLister interface {
	ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error)
}

// Result is what the API returns for any insight kind.
type Result struct {
	Text        string
	Cached      bool
	Fallback    bool
	GeneratedAt time.Time
	DataUsed    DataUsed
}

type DataUsed struct {
	CategoriesAnalyzed int `json:"categoriesAnalyzed"`
	MonthsAnalyzed     int `json:"monthsAnalyzed"`
	BudgetsTracked     int `json:"budgetsTracked"`
}

// Service serves insights from the cache when a fresh entry exists and
// otherwise gathers the numbers, generates text and caches it.
type Service struct {
	engine    *analytics.Engine
	budgets   BudgetLister
	cache     *Cache
	generator *Generator
}

func NewService(engine *analytics.Engine, budgets BudgetLister, cache *Cache, generator *Generator) *Service {
	return &Service{engine: engine, budgets: budgets, cache: cache, generator: generator}
}

type monthData struct {
	month   string
	totals  []core.CategoryTotal
	trend   []core.MonthTotal
	top     []core.TopCategory
	budgets []core.Budget
}

// gather loads the current month's figures concurrently.
func (s *Service) gather(ctx context.Context, userID string, now time.Time, withTrend, withTop bool) (monthData, error) {
	start, end := core.CurrentMonthRange(now)
	d := monthData{month: core.MonthKey(now)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.totals, err = s.engine.CategoryTotals(ctx, userID, start, end)
		return err
	})
	if withTrend {
		g.Go(func() error {
			var err error
			d.trend, err = s.engine.MonthlyTrend(ctx, userID, trendMonths)
			return err
		})
	}
	if withTop {
		g.Go(func() error {
			var err error
			d.top, err = s.engine.TopCategories(ctx, userID, topCategoryLimit, start, end)
			return err
		})
	}
	g.Go(func() error {
		var err error
		d.budgets, err = s.budgets.ListBudgets(ctx, userID, d.month)
		return err
	})
	if err := g.Wait(); err != nil {
		return monthData{}, fmt.Errorf("gather month data: %w", err)
	}
	return d, nil
}

// GenerateInsights returns the spending analysis. forceRefresh skips the cache
// read; a freshly generated result is always written back.
func (s *Service) GenerateInsights(ctx context.Context, userID string, forceRefresh bool) (Result, error) {
	if !forceRefresh {
		if res, ok, err := s.cached(ctx, userID, core.InsightSpendingAnalysis); err != nil || ok {
			return res, err
		}
	}

	d, err := s.gather(ctx, userID, s.cache.Now(), true, true)
	if err != nil {
		return Result{}, err
	}
	report := analytics.Reconcile(d.month, d.budgets, d.totals)
	snapshot := NewSpendingSnapshot(d.month, d.totals, d.trend, d.top, report)

	out := s.generator.SpendingInsights(ctx, snapshot)
	res, err := s.store(ctx, userID, core.InsightSpendingAnalysis, snapshot, out)
	if err != nil {
		return Result{}, err
	}
	res.DataUsed = DataUsed{
		CategoriesAnalyzed: len(d.totals),
		MonthsAnalyzed:     len(d.trend),
		BudgetsTracked:     len(report.Statuses),
	}
	return res, nil
}

func (s *Service) SavingTips(ctx context.Context, userID string, forceRefresh bool) (Result, error) {
	if !forceRefresh {
		if res, ok, err := s.cached(ctx, userID, core.InsightBudgetOptimization); err != nil || ok {
			return res, err
		}
	}

	d, err := s.gather(ctx, userID, s.cache.Now(), false, false)
	if err != nil {
		return Result{}, err
	}
	report := analytics.Reconcile(d.month, d.budgets, d.totals)
	snapshot := TipsSnapshot{Month: d.month, CategoryTotals: d.totals, BudgetStatus: report.Statuses}

	out := s.generator.SavingTips(ctx, snapshot)
	res, err := s.store(ctx, userID, core.InsightBudgetOptimization, snapshot, out)
	if err != nil {
		return Result{}, err
	}
	res.DataUsed = DataUsed{CategoriesAnalyzed: len(d.totals), BudgetsTracked: len(report.Statuses)}
	return res, nil
}

func (s *Service) PredictRisk(ctx context.Context, userID string, forceRefresh bool) (Result, error) {
	if !forceRefresh {
		if res, ok, err := s.cached(ctx, userID, core.InsightPrediction); err != nil || ok {
			return res, err
		}
	}

	now := s.cache.Now()
	d, err := s.gather(ctx, userID, now, true, false)
	if err != nil {
		return Result{}, err
	}
	report := analytics.Reconcile(d.month, d.budgets, d.totals)
	snapshot := NewRiskSnapshot(now, d.trend, d.totals, report.Statuses)

	out := s.generator.PredictRisk(ctx, snapshot)
	res, err := s.store(ctx, userID, core.InsightPrediction, snapshot, out)
	if err != nil {
		return Result{}, err
	}
	res.DataUsed = DataUsed{
		CategoriesAnalyzed: len(d.totals),
		MonthsAnalyzed:     len(d.trend),
		BudgetsTracked:     len(report.Statuses),
	}
	return res, nil
}

// Cached lists the user's unexpired insights, newest first.
func (s *Service) Cached(ctx context.Context, userID string) ([]core.Insight, error) {
	return s.cache.Active(ctx, userID, cachedListLimit)
}

func (s *Service) cached(ctx context.Context, userID string, t core.InsightType) (Result, bool, error) {
	in, ok, err := s.cache.Lookup(ctx, userID, t)
	if err != nil || !ok {
		return Result{}, false, err
	}
	return Result{Text: in.Response, Cached: true, GeneratedAt: in.CreatedAt}, true, nil
}

func (s *Service) store(ctx context.Context, userID string, t core.InsightType, snapshot any, out Output) (Result, error) {
	in, err := s.cache.Save(ctx, userID, t, snapshot, out.Text)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: in.Response, Fallback: out.Fallback, GeneratedAt: in.CreatedAt}, nil
}
