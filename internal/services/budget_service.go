package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"

	"github.com/google/uuid"
)

type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	FindBudget(ctx context.Context, userID string, category core.Category, month string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error)
	UpdateBudgetLimit(ctx context.Context, userID, id string, limit core.Money) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) error
}

type BudgetInput struct {
	Category     core.Category `json:"category"`
	MonthlyLimit core.Money    `json:"monthlyLimit"`
	Month        string        `json:"month"`
}

type BudgetService struct {
	storage     BudgetStore
	engine      *analytics.Engine
	invalidator Invalidator
}

func NewBudgetService(storage BudgetStore, engine *analytics.Engine, invalidator Invalidator) *BudgetService {
	return &BudgetService{storage: storage, engine: engine, invalidator: invalidator}
}

// Set creates the budget for (user, category, month) or, when one exists,
// updates its limit in place. The boolean reports whether a row was created.
//
// Two concurrent calls may both miss the lookup; the loser's insert hits the
// unique constraint and is retried once as an update.
func (s *BudgetService) Set(ctx context.Context, userID string, in BudgetInput) (core.Budget, bool, error) {
	b := core.Budget{
		ID:           uuid.NewString(),
		UserID:       userID,
		Category:     in.Category,
		MonthlyLimit: in.MonthlyLimit,
		Month:        in.Month,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, false, err
	}
	defer s.invalidate(userID)

	existing, err := s.storage.FindBudget(ctx, userID, b.Category, b.Month)
	switch {
	case err == nil:
		updated, err := s.storage.UpdateBudgetLimit(ctx, userID, existing.ID, b.MonthlyLimit)
		return updated, false, err
	case !errors.Is(err, core.ErrNotFound):
		return core.Budget{}, false, fmt.Errorf("find budget: %w", err)
	}

	created, err := s.storage.CreateBudget(ctx, b)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, core.ErrConflict) {
		return core.Budget{}, false, err
	}

	slog.DebugContext(ctx, "Budget created concurrently, retrying as update",
		"category", b.Category, "month", b.Month)
	existing, err = s.storage.FindBudget(ctx, userID, b.Category, b.Month)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("find budget after conflict: %w", err)
	}
	updated, err := s.storage.UpdateBudgetLimit(ctx, userID, existing.ID, b.MonthlyLimit)
	return updated, false, err
}

func (s *BudgetService) List(ctx context.Context, userID, month string) ([]core.Budget, error) {
	if month != "" && !core.ValidMonth(month) {
		return nil, core.NewValidationError("month", "must be in YYYY-MM format")
	}
	return s.storage.ListBudgets(ctx, userID, month)
}

func (s *BudgetService) UpdateLimit(ctx context.Context, userID, id string, limit core.Money) (core.Budget, error) {
	if limit.Cents < 0 {
		return core.Budget{}, core.NewValidationError("monthlyLimit", "cannot be negative")
	}
	b, err := s.storage.UpdateBudgetLimit(ctx, userID, id, limit)
	if err != nil {
		return core.Budget{}, err
	}
	s.invalidate(userID)
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// MonthReport reconciles the budgets of month with that month's spending.
func (s *BudgetService) MonthReport(ctx context.Context, userID, month string) (analytics.Report, error) {
	start, end, err := core.MonthRange(month)
	if err != nil {
		return analytics.Report{}, err
	}
	budgets, err := s.storage.ListBudgets(ctx, userID, month)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("list budgets: %w", err)
	}
	totals, err := s.engine.CategoryTotals(ctx, userID, start, end)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Reconcile(month, budgets, totals), nil
}

func (s *BudgetService) CurrentMonth(ctx context.Context, userID string, now time.Time) (analytics.Report, error) {
	return s.MonthReport(ctx, userID, core.MonthKey(now))
}

// Overspending lists the current month's overspent budgets, worst first.
func (s *BudgetService) Overspending(ctx context.Context, userID string, now time.Time) (string, []core.OverspentBudget, error) {
	report, err := s.CurrentMonth(ctx, userID, now)
	if err != nil {
		return "", nil, err
	}
	return report.Month, analytics.Overspending(report.Statuses), nil
}

func (s *BudgetService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
