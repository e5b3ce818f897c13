package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/cache"
	"finsight/internal/core"

	"golang.org/x/sync/errgroup"
)

const (
	dashboardTrendMonths  = 6
	dashboardTopLimit     = 5
	dashboardCacheEntries = 1000
)

type CurrentMonth struct {
	Month        string     `json:"month"`
	Total        core.Money `json:"total"`
	ExpenseCount int        `json:"expenseCount"`
	analytics.BudgetUsage
}

type Dashboard struct {
	CurrentMonth   CurrentMonth         `json:"currentMonth"`
	CategoryTotals []core.CategoryTotal `json:"categoryTotals"`
	MonthlyTrend   []core.MonthTotal    `json:"monthlyTrend"`
	TopCategories  []core.TopCategory   `json:"topCategories"`
}

// AnalyticsService assembles the dashboard. Results are cached per user for a
// short TTL and dropped whenever the user's expenses or budgets change.
type AnalyticsService struct {
	engine  *analytics.Engine
	budgets BudgetStore
	cache   *cache.LRUCache[Dashboard]

	// generations counts invalidations per user. A dashboard built across an
	// invalidation is returned but not cached.
	mu          sync.Mutex
	generations map[string]uint64
}

func NewAnalyticsService(engine *analytics.Engine, budgets BudgetStore, ttl time.Duration) *AnalyticsService {
	s := &AnalyticsService{engine: engine, budgets: budgets, generations: make(map[string]uint64)}
	if ttl > 0 {
		s.cache = cache.NewLRUCache[Dashboard](dashboardCacheEntries, ttl)
	}
	return s
}

// Cache exposes the dashboard cache so its expired entries can be reaped.
// It is nil when caching is disabled.
func (s *AnalyticsService) Cache() *cache.LRUCache[Dashboard] {
	return s.cache
}

func (s *AnalyticsService) Invalidate(userID string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
	s.cache.Delete(userID)
}

func (s *AnalyticsService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// store caches d unless userID was invalidated since gen was read.
func (s *AnalyticsService) store(userID string, gen uint64, d Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.cache.Set(userID, d)
}

func (s *AnalyticsService) Dashboard(ctx context.Context, userID string, now time.Time) (Dashboard, error) {
	month := core.MonthKey(now)
	var gen uint64
	if s.cache != nil {
		gen = s.generation(userID)
		if d, ok := s.cache.Get(userID); ok && d.CurrentMonth.Month == month {
			return d, nil
		}
	}

	start, end := core.CurrentMonthRange(now)
	var (
		d       Dashboard
		budgets []core.Budget
	)
	d.CurrentMonth.Month = month

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.CategoryTotals, err = s.engine.CategoryTotals(gctx, userID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		d.MonthlyTrend, err = s.engine.MonthlyTrend(gctx, userID, dashboardTrendMonths)
		return err
	})
	g.Go(func() error {
		var err error
		d.TopCategories, err = s.engine.TopCategories(gctx, userID, dashboardTopLimit, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		d.CurrentMonth.Total, d.CurrentMonth.ExpenseCount, err = s.engine.MonthTotal(gctx, userID, now)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.budgets.ListBudgets(gctx, userID, month)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("build dashboard: %w", err)
	}

	d.CurrentMonth.BudgetUsage = analytics.Reconcile(month, budgets, d.CategoryTotals).Usage()
	if s.cache != nil {
		s.store(userID, gen, d)
	}
	return d, nil
}
